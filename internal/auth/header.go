package auth

import (
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
)

// Scheme is the closed set of credential kinds a request can present.
type Scheme int

const (
	// SchemeNone: no Authorization header and no session cookie.
	SchemeNone Scheme = iota
	// SchemeBearer: long-lived API token.
	SchemeBearer
	// SchemeSession: interactive session token, via header or cookie.
	SchemeSession
	// SchemeBasic: inline username/password.
	SchemeBasic
	// SchemeUnknown: a header was present but not understood.
	SchemeUnknown
)

// Credential is the parsed form of a request's Authorization/Cookie material.
// Token is set for Bearer/Session; User/Pass for Basic.
type Credential struct {
	Scheme Scheme
	Token  string
	User   string
	Pass   string
}

// ParseCredential classifies the raw Authorization header value, falling back
// to the session cookie when no header is present. One parser, one place
// where scheme strings are interpreted.
func ParseCredential(authorization, cookieHeader, cookieName string) Credential {
	ah := strings.TrimSpace(authorization)
	if ah == "" {
		if tok, ok := sessionFromCookie(cookieHeader, cookieName); ok {
			return Credential{Scheme: SchemeSession, Token: tok}
		}
		return Credential{Scheme: SchemeNone}
	}

	switch {
	case hasScheme(ah, "Bearer "):
		return Credential{Scheme: SchemeBearer, Token: strings.TrimSpace(ah[len("Bearer "):])}
	case hasScheme(ah, "Session "):
		return Credential{Scheme: SchemeSession, Token: strings.TrimSpace(ah[len("Session "):])}
	case hasScheme(ah, "Basic "):
		user, pass, ok := decodeBasic(strings.TrimSpace(ah[len("Basic "):]))
		if !ok {
			return Credential{Scheme: SchemeUnknown}
		}
		return Credential{Scheme: SchemeBasic, User: user, Pass: pass}
	}
	return Credential{Scheme: SchemeUnknown}
}

func hasScheme(header, prefix string) bool {
	return len(header) >= len(prefix) && strings.EqualFold(header[:len(prefix)], prefix)
}

func decodeBasic(b64 string) (user, pass string, ok bool) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", "", false
	}
	user, pass, found := strings.Cut(string(raw), ":")
	if !found {
		return "", "", false
	}
	return user, pass, true
}

// sessionFromCookie pulls the percent-encoded session token out of a raw
// Cookie header value.
func sessionFromCookie(cookieHeader, cookieName string) (string, bool) {
	if cookieHeader == "" || cookieName == "" {
		return "", false
	}
	// Reuse net/http's cookie parsing rather than splitting by hand.
	req := http.Request{Header: http.Header{"Cookie": []string{cookieHeader}}}
	c, err := req.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	tok, err := url.QueryUnescape(c.Value)
	if err != nil {
		return "", false
	}
	return tok, true
}
