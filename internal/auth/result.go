package auth

import "net/http"

// Result is the uniform outcome of an auth-facing operation: an allow/deny
// decision plus everything the transport needs to answer the caller.
type Result struct {
	OK     bool
	Status int
	Header http.Header
	Body   string
}

func newResult(ok bool, status int) Result {
	return Result{OK: ok, Status: status, Header: http.Header{}}
}

// Allowed is a plain pass-through decision with no headers or body.
func Allowed() Result {
	return newResult(true, http.StatusOK)
}
