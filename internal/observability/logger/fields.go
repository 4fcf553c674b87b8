package logger

import (
	"time"

	"go.uber.org/zap"
)

// Standard field helpers so log keys stay consistent across packages.

// RequestID is the per-request correlation ID.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method is the HTTP method.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path is the request path.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status is the HTTP status code.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration is an elapsed time in milliseconds.
func Duration(v time.Duration) zap.Field {
	return zap.Int64("duration_ms", v.Milliseconds())
}

// Username identifies the acting account.
func Username(v string) zap.Field {
	return zap.String("username", v)
}

// Remote is the caller's remote address.
func Remote(v string) zap.Field {
	return zap.String("remote", v)
}

// Err wraps an error value.
func Err(err error) zap.Field {
	return zap.Error(err)
}
