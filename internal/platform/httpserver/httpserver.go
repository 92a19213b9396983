// Package httpserver owns net/http server construction so timeouts stay
// consistent and main stays small.
package httpserver

import (
	"context"
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
)

// Server wraps http.Server with opinionated timeouts.
type Server struct {
	srv *http.Server
}

// New builds a Server listening on addr with the given handler.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
	}
}

// ListenAndServe blocks serving requests until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
