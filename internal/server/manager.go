package server

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Server is one long-running listener.
type Server interface {
	Start(ctx context.Context) error
}

// Runner is a background loop that stops when ctx is cancelled.
type Runner func(ctx context.Context)

// Manager starts servers and background loops together.
type Manager struct {
	servers []Server
	loops   []Runner
}

// NewManager creates a Manager for servers.
func NewManager(servers ...Server) *Manager {
	return &Manager{servers: servers}
}

// Go adds a background loop started alongside the servers.
func (m *Manager) Go(r Runner) {
	m.loops = append(m.loops, r)
}

// Start runs everything until ctx is cancelled or a server fails, and
// returns the first server error.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, s := range m.servers {
		g.Go(func() error { return s.Start(ctx) })
	}
	for _, r := range m.loops {
		g.Go(func() error {
			r(ctx)
			return nil
		})
	}

	slog.Info("server: all listeners starting", "servers", len(m.servers), "loops", len(m.loops))
	return g.Wait()
}
