package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dropDatabas3/gatehouse/internal/auth"
	"github.com/dropDatabas3/gatehouse/internal/config"
	tokens "github.com/dropDatabas3/gatehouse/internal/security/token"
	"github.com/dropDatabas3/gatehouse/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestHandler wires the full stack the way cmd/gatehouse does, over a
// throwaway state file and a fixed administrator account.
func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	cfg.Credentials.Username = "admin"
	cfg.Credentials.Salt = "pepper"
	cfg.Credentials.PasswordHash = tokens.SHA256Hex("hunter2" + "pepper")

	deps := auth.Deps{Store: store.Open(filepath.Join(t.TempDir(), "state.json"))}
	apiTokens := auth.NewAPITokenManager(deps)
	sessions := auth.NewSessionManager(deps, cfg.SessionTTL())
	sessionAPI := auth.NewSessionAPI(sessions, cfg)
	dispatcher := auth.NewDispatcher(apiTokens, sessionAPI, cfg)

	return New(Deps{
		Cfg:        cfg,
		Dispatcher: dispatcher,
		SessionAPI: sessionAPI,
		APITokens:  apiTokens,
	})
}

func doRequest(h http.Handler, method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.RemoteAddr = "127.0.0.1:55555"
	for k, v := range hdr {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()
	w := doRequest(h, http.MethodPost, "/api/auth/login",
		`{"username":"admin","password":"hunter2"}`,
		map[string]string{"Content-Type": "application/json"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func TestRouter_WelcomeIsPublic(t *testing.T) {
	h := newTestHandler(t)
	w := doRequest(h, http.MethodGet, "/welcome", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}

func TestRouter_APIRequiresCredentials(t *testing.T) {
	h := newTestHandler(t)
	w := doRequest(h, http.MethodGet, "/api/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Basic realm="gatehouse"`, w.Header().Get("WWW-Authenticate"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_LoginThenSessionFlow(t *testing.T) {
	h := newTestHandler(t)
	tok := login(t, h)

	// The session credential opens the management API.
	w := doRequest(h, http.MethodGet, "/api/sessions", "",
		map[string]string{"Authorization": "Session " + tok})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var listing struct {
		Sessions []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
			Current  bool   `json:"current"`
		} `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Sessions, 1)
	assert.Equal(t, "admin", listing.Sessions[0].Username)
	assert.True(t, listing.Sessions[0].Current)

	// Logout, then the same token is dead.
	w = doRequest(h, http.MethodPost, "/api/auth/logout", "",
		map[string]string{"Authorization": "Session " + tok})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")

	w = doRequest(h, http.MethodGet, "/api/sessions", "",
		map[string]string{"Authorization": "Session " + tok})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_LoginSetsCookieAndCookieAuthenticates(t *testing.T) {
	h := newTestHandler(t)
	w := doRequest(h, http.MethodPost, "/api/auth/login",
		`{"username":"ADMIN","password":"hunter2"}`,
		map[string]string{"Content-Type": "application/json"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	cookie := w.Header().Get("Set-Cookie")
	require.NotEmpty(t, cookie)
	assert.Contains(t, cookie, "gh_session=")
	assert.Contains(t, cookie, "HttpOnly")

	pair, _, _ := strings.Cut(cookie, ";")
	w = doRequest(h, http.MethodGet, "/api/auth/validate", "",
		map[string]string{"Cookie": pair})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRouter_BadLogin(t *testing.T) {
	h := newTestHandler(t)
	w := doRequest(h, http.MethodPost, "/api/auth/login",
		`{"username":"admin","password":"wrong"}`,
		map[string]string{"Content-Type": "application/json"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Header().Get("Set-Cookie"))
}

func TestRouter_APITokenLifecycle(t *testing.T) {
	h := newTestHandler(t)
	session := login(t, h)
	authz := map[string]string{
		"Authorization": "Session " + session,
		"Content-Type":  "application/json",
	}

	w := doRequest(h, http.MethodPost, "/api/tokens",
		`{"scopes":[{"path":"/api/sessions","methods":["GET"]}]}`, authz)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Token)

	// The bearer token covers GET /api/sessions but nothing else.
	w = doRequest(h, http.MethodGet, "/api/sessions", "",
		map[string]string{"Authorization": "Bearer " + created.Token})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(h, http.MethodGet, "/api/tokens", "",
		map[string]string{"Authorization": "Bearer " + created.Token})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// List shows one token, raw value never echoed back.
	w = doRequest(h, http.MethodGet, "/api/tokens", "",
		map[string]string{"Authorization": "Session " + session})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), created.Token)

	var listing struct {
		Tokens []struct {
			Hash string `json:"hash"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Tokens, 1)
	assert.Equal(t, tokens.SHA256Hex(created.Token), listing.Tokens[0].Hash)

	// Revoke, then the bearer stops working.
	w = doRequest(h, http.MethodDelete, "/api/tokens/"+listing.Tokens[0].Hash, "",
		map[string]string{"Authorization": "Session " + session})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(h, http.MethodGet, "/api/sessions", "",
		map[string]string{"Authorization": "Bearer " + created.Token})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_MalformedScopeRejected(t *testing.T) {
	h := newTestHandler(t)
	session := login(t, h)

	w := doRequest(h, http.MethodPost, "/api/tokens",
		`{"scopes":[{"path":"","methods":["GET"]}]}`,
		map[string]string{
			"Authorization": "Session " + session,
			"Content-Type":  "application/json",
		})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "malformed_scope")
}

func TestRouter_WANOriginDenied(t *testing.T) {
	h := newTestHandler(t)
	tok := login(t, h)

	r := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	r.RemoteAddr = "203.0.113.9:443"
	r.Header.Set("Authorization", "Session "+tok)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	// Origin tiering runs before any credential check.
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_RevokeOtherSession(t *testing.T) {
	h := newTestHandler(t)
	first := login(t, h)
	second := login(t, h)

	// From the second session, revoke the first by its hash.
	w := doRequest(h, http.MethodDelete, "/api/sessions/"+tokens.SHA256Hex(first), "",
		map[string]string{"Authorization": "Session " + second})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(h, http.MethodGet, "/api/auth/validate", "",
		map[string]string{"Authorization": "Session " + first})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(h, http.MethodDelete, "/api/sessions/"+tokens.SHA256Hex(first), "",
		map[string]string{"Authorization": "Session " + second})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
