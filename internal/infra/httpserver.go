package infra

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// HTTPServer wraps http.Server with the studio timeouts and a base context
// that is cancelled when the server shuts down.
type HTTPServer struct {
	server *http.Server
	cancel context.CancelFunc
}

// NewHTTPServer creates a configured HTTP server instance. Requests see a
// context derived from base.
func NewHTTPServer(base context.Context, cfg *Config, handler http.Handler) *HTTPServer {
	ctx, cancel := context.WithCancel(base)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	return &HTTPServer{server: srv, cancel: cancel}
}

// Addr is the listen address.
func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

// Start blocks serving requests. A clean shutdown returns nil.
func (s *HTTPServer) Start() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections, drains active ones and then cancels
// the base context.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	defer s.cancel()
	return s.server.Shutdown(ctx)
}
