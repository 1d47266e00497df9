package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
)

// GRPCServer serves a *grpc.Server until its context is cancelled.
type GRPCServer struct {
	addr  string
	srv   *grpc.Server
	ready chan net.Addr
}

// NewGRPC wraps srv for addr.
func NewGRPC(addr string, srv *grpc.Server) *GRPCServer {
	return &GRPCServer{addr: addr, srv: srv, ready: make(chan net.Addr, 1)}
}

// Ready yields the bound address once the listener is open.
func (s *GRPCServer) Ready() <-chan net.Addr { return s.ready }

// Start listens and serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: grpc listen %s: %w", s.addr, err)
	}
	slog.Info("server: grpc listening", "addr", lis.Addr().String())
	s.ready <- lis.Addr()

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(lis) }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: grpc serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("server: grpc shutting down")
		s.srv.GracefulStop()
		return nil
	}
}
