package handlers

import (
	"net/http"

	"github.com/dropDatabas3/gatehouse/internal/auth"
)

// applyResult copies an auth.Result onto the response writer.
func applyResult(w http.ResponseWriter, res auth.Result) {
	for key, values := range res.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	if res.Body != "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(res.Status)
	if res.Body != "" {
		_, _ = w.Write([]byte(res.Body))
	}
}

// authRequest projects the pieces of the HTTP request the auth core cares
// about.
func authRequest(r *http.Request) auth.Request {
	return auth.Request{
		RemoteAddr:    r.RemoteAddr,
		Authorization: r.Header.Get("Authorization"),
		Cookie:        r.Header.Get("Cookie"),
		Path:          r.URL.RequestURI(),
		Method:        r.Method,
	}
}

// sessionToken extracts the raw session token a request carries, via the
// Session scheme or the cookie. Empty when none.
func sessionToken(r *http.Request, cookieName string) string {
	cred := auth.ParseCredential(r.Header.Get("Authorization"), r.Header.Get("Cookie"), cookieName)
	if cred.Scheme != auth.SchemeSession {
		return ""
	}
	return cred.Token
}
