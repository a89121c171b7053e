package middlewares

import (
	"net/http"
	"strings"

	"github.com/Rakhulsr/go-ecommerce-api/app/apperrors"
	"github.com/Rakhulsr/go-ecommerce-api/app/auth"
	"github.com/Rakhulsr/go-ecommerce-api/app/handlers"
)

// AuthMiddleware verifies the bearer token and stores its claims in the
// request context.
func AuthMiddleware(tokens *auth.TokenService, resp *handlers.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				resp.Error(w, r, apperrors.ErrInvalidToken.Withf("missing bearer token"))
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				resp.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// RoleMiddleware lets through only users with one of roles. It must run
// after AuthMiddleware.
func RoleMiddleware(resp *handlers.Responder, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				resp.Error(w, r, apperrors.ErrInvalidToken)
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			resp.Error(w, r, apperrors.ErrRoleRequired.Withf("this action requires the %s role", strings.Join(roles, " or ")))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
