package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

// HTTPServer serves an http.Handler until its context is cancelled.
type HTTPServer struct {
	addr  string
	srv   *http.Server
	ready chan net.Addr
}

// NewHTTP creates an HTTPServer for addr (host:port; port 0 picks one).
func NewHTTP(addr string, h http.Handler) *HTTPServer {
	return &HTTPServer{
		addr: addr,
		srv: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ready: make(chan net.Addr, 1),
	}
}

// Ready yields the bound address once the listener is open.
func (s *HTTPServer) Ready() <-chan net.Addr { return s.ready }

// Start listens and serves until ctx is cancelled, then shuts down with a
// bounded grace period.
func (s *HTTPServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: http listen %s: %w", s.addr, err)
	}
	slog.Info("server: http listening", "addr", lis.Addr().String())
	s.ready <- lis.Addr()

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: http serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("server: http shutting down")
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: http shutdown: %w", err)
		}
		return nil
	}
}
