package handlers

import (
	"net/http"

	"github.com/Rakhulsr/go-ecommerce-api/app/services"
)

type AuthHandler struct {
	auth *services.AuthService
	resp *Responder
}

func NewAuthHandler(auth *services.AuthService, resp *Responder) *AuthHandler {
	return &AuthHandler{auth: auth, resp: resp}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	result, err := h.auth.Register(r.Context(), in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusCreated, "registration successful", result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	result, err := h.auth.Login(r.Context(), in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "login successful", result)
}
