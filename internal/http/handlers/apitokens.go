package handlers

import (
	"errors"
	"net/http"

	"github.com/dropDatabas3/gatehouse/internal/auth"
	"github.com/dropDatabas3/gatehouse/internal/config"
	httpx "github.com/dropDatabas3/gatehouse/internal/http"
	"github.com/go-chi/chi/v5"
)

// APITokensHandler exposes creation, listing and revocation of the scoped
// automation tokens.
type APITokensHandler struct {
	Manager *auth.APITokenManager
	Cfg     *config.Config
}

// Register mounts the token management routes.
func (h *APITokensHandler) Register(r chi.Router) {
	r.Post("/api/tokens", h.create)
	r.Get("/api/tokens", h.list)
	r.Delete("/api/tokens/{hash}", h.revoke)
}

type createTokenRequest struct {
	Scopes []auth.ScopeSpec `json:"scopes"`
}

func (h *APITokensHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createTokenRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	raw, err := h.Manager.Create(req.Scopes, h.Cfg.Credentials.Username)
	if err != nil {
		if errors.Is(err, auth.ErrMalformedScope) {
			httpx.WriteError(w, http.StatusBadRequest, "malformed_scope",
				"every scope needs a non-empty path and at least one method")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "token_generation_failed", "could not generate token")
		return
	}
	// The raw token appears here exactly once; only its hash is kept.
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"token": raw})
}

func (h *APITokensHandler) list(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"tokens": h.Manager.List()})
}

func (h *APITokensHandler) revoke(w http.ResponseWriter, r *http.Request) {
	if !h.Manager.Revoke(chi.URLParam(r, "hash")) {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "no token with that hash")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}
