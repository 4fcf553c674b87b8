package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dropDatabas3/gatehouse/internal/config"
	"github.com/dropDatabas3/gatehouse/internal/metrics"
	"github.com/dropDatabas3/gatehouse/internal/observability/logger"
	tokens "github.com/dropDatabas3/gatehouse/internal/security/token"
	"go.uber.org/zap"
)

const (
	// apiPrefix guards the control API; everything outside it is the public
	// SPA shell and static assets.
	apiPrefix = "/api/"

	// welcomePath is reachable with no credentials at all.
	welcomePath = "/welcome"

	loginPath  = "/api/auth/login"
	logoutPath = "/api/auth/logout"

	basicChallenge = `Basic realm="gatehouse"`
)

// Request is the slice of an inbound HTTP request the dispatcher looks at.
type Request struct {
	RemoteAddr    string
	Authorization string
	Cookie        string
	Path          string
	Method        string
}

// Dispatcher is the single per-request entry point: it classifies the
// credential, applies network-origin tiering and public-path allowances, and
// delegates to the token managers. First matching rule wins.
type Dispatcher struct {
	api      *APITokenManager
	sessions *SessionAPI
	cfg      *config.Config
	maxTier  Tier
	log      *zap.Logger
}

// NewDispatcher wires the dispatcher over both credential families.
func NewDispatcher(api *APITokenManager, sessions *SessionAPI, cfg *config.Config) *Dispatcher {
	return &Dispatcher{
		api:      api,
		sessions: sessions,
		cfg:      cfg,
		maxTier:  ParseTier(cfg.Auth.MaxOrigin),
		log:      logger.Named("dispatch"),
	}
}

// Authenticate runs the per-request state machine from the top:
//
//  1. strip the query string
//  2. public welcome page → allow
//  3. origin tier beyond the configured maximum → 403, credentials ignored
//  4. no administrator configured yet → allow (bootstrap mode)
//  5. path outside the protected API prefix → allow
//  6. login/logout endpoints → allow
//  7. otherwise dispatch on the parsed credential scheme
func (d *Dispatcher) Authenticate(req Request) Result {
	path := req.Path
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	if path == welcomePath {
		return d.allow()
	}

	if tier := ClassifyOrigin(req.RemoteAddr); tier > d.maxTier {
		d.log.Warn("origin denied", logger.Remote(req.RemoteAddr), zap.String("tier", tier.String()))
		metrics.AuthDecisions.WithLabelValues("denied_origin").Inc()
		return d.deny(http.StatusForbidden, "origin not allowed")
	}

	if !d.cfg.CredentialsConfigured() {
		// Bootstrap: the console must stay reachable so an operator can set
		// credentials in the first place.
		return d.allow()
	}

	if !strings.HasPrefix(path, apiPrefix) {
		return d.allow()
	}

	if path == loginPath || path == logoutPath {
		return d.allow()
	}

	cred := ParseCredential(req.Authorization, req.Cookie, d.cfg.Auth.CookieName)
	switch cred.Scheme {
	case SchemeBearer:
		if d.api.Authenticate(cred.Token, path, req.Method) {
			metrics.AuthDecisions.WithLabelValues("allow").Inc()
			return d.allow()
		}
		// Unknown token and out-of-scope token are indistinguishable here;
		// a presented Bearer credential that does not cover (path, method)
		// is a 403, unlike the 401 for absent credentials.
		metrics.AuthDecisions.WithLabelValues("denied_scope").Inc()
		return d.deny(http.StatusForbidden, "Forbidden")

	case SchemeSession:
		if res := d.sessions.Validate(cred.Token); res.OK {
			metrics.AuthDecisions.WithLabelValues("allow").Inc()
			return d.allow()
		}
		return d.unauthorized()

	case SchemeBasic:
		if d.sessions.VerifyCredentials(cred.User, cred.Pass) {
			metrics.AuthDecisions.WithLabelValues("allow").Inc()
			return d.allow()
		}
		return d.unauthorized()

	default: // SchemeNone, SchemeUnknown
		return d.unauthorized()
	}
}

// ActiveSessionHash returns the hash of the caller's session token, for
// flagging "current" in session listings. Empty when no session credential
// is present.
func (d *Dispatcher) ActiveSessionHash(req Request) string {
	cred := ParseCredential(req.Authorization, req.Cookie, d.cfg.Auth.CookieName)
	if cred.Scheme != SchemeSession || cred.Token == "" {
		return ""
	}
	return tokens.SHA256Hex(cred.Token)
}

func (d *Dispatcher) allow() Result {
	return Allowed()
}

// deny builds an error result that carries the same CORS header as the
// success path, so the browser UI can read the failure body.
func (d *Dispatcher) deny(status int, msg string) Result {
	res := newResult(false, status)
	res.Header.Set("Access-Control-Allow-Origin", d.cfg.Server.Origin)
	body, _ := json.Marshal(map[string]string{"error": msg})
	res.Body = string(body)
	return res
}

func (d *Dispatcher) unauthorized() Result {
	metrics.AuthDecisions.WithLabelValues("denied_credentials").Inc()
	res := d.deny(http.StatusUnauthorized, "Unauthorized")
	res.Header.Set("WWW-Authenticate", basicChallenge)
	return res
}
