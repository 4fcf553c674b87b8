package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

const welcomeHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>gatehouse</title></head>
<body>
<h1>gatehouse</h1>
<p>The management console is up. Log in at <code>POST /api/auth/login</code>.</p>
</body>
</html>
`

// WelcomeHandler serves the public welcome page; the real console UI is an
// external SPA.
type WelcomeHandler struct{}

// Register mounts the welcome page and a root redirect to it.
func (h *WelcomeHandler) Register(r chi.Router) {
	r.Get("/welcome", h.welcome)
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/welcome", http.StatusFound)
	})
}

func (h *WelcomeHandler) welcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(welcomeHTML))
}
