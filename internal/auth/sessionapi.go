package auth

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/gatehouse/internal/config"
	"github.com/dropDatabas3/gatehouse/internal/metrics"
	"github.com/dropDatabas3/gatehouse/internal/observability/logger"
	tokens "github.com/dropDatabas3/gatehouse/internal/security/token"
	"go.uber.org/zap"
)

// SessionAPI layers credential verification and the HTTP response contract
// (cookies, CORS, redirect hygiene) over the SessionManager.
type SessionAPI struct {
	sessions *SessionManager
	cfg      *config.Config
	log      *zap.Logger
}

// NewSessionAPI wires the API over an existing manager.
func NewSessionAPI(sessions *SessionManager, cfg *config.Config) *SessionAPI {
	return &SessionAPI{sessions: sessions, cfg: cfg, log: logger.Named("sessionapi")}
}

// VerifyCredentials checks a username/password pair against the configured
// administrator account: case-insensitive username and hex sha256(password +
// salt) compared case-insensitively against the stored hash.
func (a *SessionAPI) VerifyCredentials(username, password string) bool {
	if !a.cfg.CredentialsConfigured() {
		return false
	}
	if !strings.EqualFold(username, a.cfg.Credentials.Username) {
		return false
	}
	got := strings.ToLower(tokens.SHA256Hex(password + a.cfg.Credentials.Salt))
	want := strings.ToLower(a.cfg.Credentials.PasswordHash)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// Login verifies the credentials and, on success, issues a session token and
// builds the full login response: JSON body, hardened Set-Cookie and the
// sanitized redirect target. Wrong credentials get a bare 401 with no cookie.
func (a *SessionAPI) Login(username, password, redirectURL string, rememberMe bool, userAgent, remoteAddr string) Result {
	if !a.VerifyCredentials(username, password) {
		metrics.Logins.WithLabelValues("bad_credentials").Inc()
		a.log.Warn("login rejected", logger.Username(username), logger.Remote(remoteAddr))
		return a.errorResult(http.StatusUnauthorized, "invalid credentials")
	}

	lifetime := a.cfg.SessionTTL()
	if rememberMe {
		lifetime = a.cfg.RememberMeTTL()
	}
	raw, err := a.sessions.Issue(username, lifetime, userAgent, remoteAddr, rememberMe)
	if err != nil {
		// Random source failure. Fail closed without leaking the cause.
		a.log.Error("session issue failed", logger.Err(err))
		return a.errorResult(http.StatusUnauthorized, "invalid credentials")
	}

	redirect := SanitizeRedirect(redirectURL)
	body, _ := json.Marshal(map[string]any{
		"token":       raw,
		"expires_in":  int64(lifetime.Seconds()),
		"remember_me": rememberMe,
		"redirect":    redirect,
	})

	res := a.result(true, http.StatusOK)
	res.Body = string(body)
	res.Header.Add("Set-Cookie", a.sessionCookie(raw, rememberMe, lifetime))
	metrics.Logins.WithLabelValues("ok").Inc()
	a.log.Info("login ok", logger.Username(username), logger.Remote(remoteAddr))
	return res
}

// Logout revokes the session best-effort and always succeeds, clearing the
// cookie either way so a stale browser state cannot wedge the UI.
func (a *SessionAPI) Logout(raw string) Result {
	if raw != "" {
		a.sessions.Revoke(raw)
	}
	res := a.result(true, http.StatusOK)
	res.Body = `{"status":"ok"}`
	res.Header.Add("Set-Cookie", a.clearCookie())
	return res
}

// Validate answers whether the raw token maps to a live session.
func (a *SessionAPI) Validate(raw string) Result {
	if raw == "" || !a.sessions.Validate(raw) {
		return a.errorResult(http.StatusUnauthorized, "invalid session")
	}
	return a.result(true, http.StatusOK)
}

// ListSessions returns the session table as JSON, flagging the caller's own
// session by hash equality with activeHash.
func (a *SessionAPI) ListSessions(usernameFilter, activeHash string) Result {
	views := a.sessions.List(usernameFilter)

	type entry struct {
		SessionView
		Current bool `json:"current"`
	}
	entries := make([]entry, 0, len(views))
	for _, v := range views {
		entries = append(entries, entry{SessionView: v, Current: activeHash != "" && v.ID == activeHash})
	}
	body, _ := json.Marshal(map[string]any{"sessions": entries})

	res := a.result(true, http.StatusOK)
	res.Body = string(body)
	return res
}

// RevokeSession removes a session by its management handle.
func (a *SessionAPI) RevokeSession(hash string) Result {
	if strings.TrimSpace(hash) == "" {
		return a.errorResult(http.StatusBadRequest, "missing session id")
	}
	if !a.sessions.RevokeByHash(hash) {
		return a.errorResult(http.StatusNotFound, "session not found")
	}
	res := a.result(true, http.StatusOK)
	res.Body = `{"status":"revoked"}`
	return res
}

// result builds a Result carrying the strict single-origin CORS header.
// Errors carry it too, so the browser UI can read failure bodies.
func (a *SessionAPI) result(ok bool, status int) Result {
	res := newResult(ok, status)
	res.Header.Set("Access-Control-Allow-Origin", a.cfg.Server.Origin)
	return res
}

func (a *SessionAPI) errorResult(status int, msg string) Result {
	res := a.result(false, status)
	body, _ := json.Marshal(map[string]string{"error": msg})
	res.Body = string(body)
	return res
}

// sessionCookie builds the hardened session cookie. Max-Age/Expires only for
// remember-me logins; otherwise it is a session-lifetime cookie. Built by
// hand because net/http's Cookie has no Priority attribute.
func (a *SessionAPI) sessionCookie(raw string, rememberMe bool, lifetime time.Duration) string {
	var b strings.Builder
	b.WriteString(a.cfg.Auth.CookieName)
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(raw))
	b.WriteString("; Path=/; HttpOnly; SameSite=Strict; Secure; Priority=High")
	if rememberMe {
		expires := time.Now().Add(lifetime).UTC().Format(http.TimeFormat)
		fmt.Fprintf(&b, "; Max-Age=%d; Expires=%s", int64(lifetime.Seconds()), expires)
	}
	return b.String()
}

func (a *SessionAPI) clearCookie() string {
	return a.cfg.Auth.CookieName + "=; Path=/; HttpOnly; SameSite=Strict; Secure; Max-Age=0; Expires=Thu, 01 Jan 1970 00:00:00 GMT"
}

// SanitizeRedirect applies the open-redirect allowlist to a post-login
// redirect target. Anything suspect silently becomes "/": the target must be
// an absolute path on this host, with no scheme separator, encoded slash,
// backslash, parent traversal or protocol-relative prefix, and must survive
// backslash normalization unchanged.
func SanitizeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") {
		return "/"
	}
	if strings.HasPrefix(target, "//") {
		return "/"
	}
	lower := strings.ToLower(target)
	if strings.Contains(lower, "://") || strings.Contains(lower, "%2f") {
		return "/"
	}
	if strings.Contains(target, `\`) || strings.Contains(target, "/..") {
		return "/"
	}
	if strings.ReplaceAll(target, `\`, "/") != target {
		return "/"
	}
	return target
}
