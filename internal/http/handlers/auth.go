package handlers

import (
	"net/http"

	"github.com/dropDatabas3/gatehouse/internal/auth"
	"github.com/dropDatabas3/gatehouse/internal/config"
	httpx "github.com/dropDatabas3/gatehouse/internal/http"
	"github.com/go-chi/chi/v5"
)

// AuthHandler exposes login, logout and token validation.
type AuthHandler struct {
	API *auth.SessionAPI
	Cfg *config.Config
}

// Register mounts the auth routes under /api/auth.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)
	r.Get("/api/auth/validate", h.validate)
}

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Redirect   string `json:"redirect"`
	RememberMe bool   `json:"remember_me"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	res := h.API.Login(req.Username, req.Password, req.Redirect, req.RememberMe,
		r.UserAgent(), r.RemoteAddr)
	applyResult(w, res)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	applyResult(w, h.API.Logout(sessionToken(r, h.Cfg.Auth.CookieName)))
}

func (h *AuthHandler) validate(w http.ResponseWriter, r *http.Request) {
	applyResult(w, h.API.Validate(sessionToken(r, h.Cfg.Auth.CookieName)))
}
