package handlers

import (
	"net/http"

	"github.com/dropDatabas3/gatehouse/internal/auth"
	"github.com/go-chi/chi/v5"
)

// SessionsHandler exposes session listing and revocation for the console's
// device management view.
type SessionsHandler struct {
	API        *auth.SessionAPI
	Dispatcher *auth.Dispatcher
}

// Register mounts the session management routes.
func (h *SessionsHandler) Register(r chi.Router) {
	r.Get("/api/sessions", h.list)
	r.Delete("/api/sessions/{id}", h.revoke)
}

func (h *SessionsHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("username")
	active := h.Dispatcher.ActiveSessionHash(authRequest(r))
	applyResult(w, h.API.ListSessions(filter, active))
}

func (h *SessionsHandler) revoke(w http.ResponseWriter, r *http.Request) {
	applyResult(w, h.API.RevokeSession(chi.URLParam(r, "id")))
}
