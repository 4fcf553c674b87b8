package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dropDatabas3/gatehouse/internal/observability/logger"
	"go.uber.org/zap"
)

// Server runs an HTTP listener until its context is canceled, then shuts
// down gracefully.
type Server struct {
	srv *http.Server
	log *zap.Logger
}

// NewServer builds a server for addr.
func NewServer(name, addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: logger.Named(name),
	}
}

// Run blocks until the listener fails or ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.srv.Addr))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
