package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Rakhulsr/go-ecommerce-api/app/apperrors"
	"github.com/Rakhulsr/go-ecommerce-api/app/auth"
	"github.com/unrolled/render"
)

// Response is the envelope of every API reply.
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type Responder struct {
	render *render.Render
	logger *slog.Logger
}

func NewResponder(r *render.Render, logger *slog.Logger) *Responder {
	return &Responder{render: r, logger: logger}
}

func (rs *Responder) OK(w http.ResponseWriter, status int, message string, data any) {
	_ = rs.render.JSON(w, status, Response{Success: true, Message: message, Data: data})
}

// Error writes err with the status of its kind. Errors without a kind are
// logged and reported as a generic internal error.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Kind == apperrors.KindInternal {
		rs.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		_ = rs.render.JSON(w, http.StatusInternalServerError, Response{Message: "internal server error"})
		return
	}

	if appErr.Kind == apperrors.KindConflict {
		rs.logger.Warn("request conflict", "path", r.URL.Path, "code", appErr.Code, "error", err)
	}
	_ = rs.render.JSON(w, StatusFor(appErr.Kind), Response{
		Message: appErr.Message,
		Errors:  appErr.Fields,
	})
}

func StatusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindBusinessRule:
		return http.StatusUnprocessableEntity
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads an optional JSON body into dst. An empty body leaves dst
// untouched.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.Validation("invalid request body", map[string]string{"body": err.Error()})
	}
	return nil
}

func userID(r *http.Request) string {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return ""
	}
	return claims.UserID
}
