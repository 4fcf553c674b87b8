// Package router assembles the HTTP surface: middleware chain, the auth gate
// and every handler group, in one place.
package router

import (
	"net/http"

	"github.com/dropDatabas3/gatehouse/internal/auth"
	"github.com/dropDatabas3/gatehouse/internal/config"
	httpx "github.com/dropDatabas3/gatehouse/internal/http"
	"github.com/dropDatabas3/gatehouse/internal/http/handlers"
	"github.com/dropDatabas3/gatehouse/internal/http/middlewares"
	"github.com/go-chi/chi/v5"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Cfg        *config.Config
	Dispatcher *auth.Dispatcher
	SessionAPI *auth.SessionAPI
	APITokens  *auth.APITokenManager
}

// New wires middlewares and handlers. The gate middleware runs the
// authentication dispatcher on every request; handlers behind it can assume
// the caller was allowed through.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithLogging())
	r.Use(httpx.WithMetrics(routePattern))
	r.Use(middlewares.WithGate(deps.Dispatcher))

	(&handlers.WelcomeHandler{}).Register(r)
	(&handlers.AuthHandler{API: deps.SessionAPI, Cfg: deps.Cfg}).Register(r)
	(&handlers.SessionsHandler{API: deps.SessionAPI, Dispatcher: deps.Dispatcher}).Register(r)
	(&handlers.APITokensHandler{Manager: deps.APITokens, Cfg: deps.Cfg}).Register(r)

	return r
}

// routePattern labels metrics with the chi route pattern instead of the raw
// path, keeping label cardinality bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return ""
}
