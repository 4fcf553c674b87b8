package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/gatehouse/internal/auth"
)

// WithGate runs the authentication dispatcher on every request before any
// handler. A denial is answered here with the dispatcher's full result
// (status, headers, body); an allow falls through with its headers applied.
func WithGate(d *auth.Dispatcher) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := d.Authenticate(auth.Request{
				RemoteAddr:    r.RemoteAddr,
				Authorization: r.Header.Get("Authorization"),
				Cookie:        r.Header.Get("Cookie"),
				Path:          r.URL.RequestURI(),
				Method:        r.Method,
			})

			for key, values := range res.Header {
				for _, v := range values {
					w.Header().Add(key, v)
				}
			}
			if !res.OK {
				if res.Body != "" {
					w.Header().Set("Content-Type", "application/json; charset=utf-8")
				}
				w.WriteHeader(res.Status)
				if res.Body != "" {
					_, _ = w.Write([]byte(res.Body))
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
