package probe

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name for the vehicle registry.
const ServiceName = "garagemon.Registry"

// Counter reports how many vehicles the registry holds.
type Counter interface {
	Count() int
}

// Probe maps registry state onto a gRPC health server.
type Probe struct {
	src Counter
	hs  *health.Server
}

// New creates a Probe and performs an initial Sync.
func New(src Counter) *Probe {
	p := &Probe{src: src, hs: health.NewServer()}
	p.Sync()
	return p
}

// Register adds the health service to s.
func (p *Probe) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, p.hs)
}

// Sync recomputes the serving status and returns it.
func (p *Probe) Sync() healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if p.src.Count() > 0 {
		st = healthpb.HealthCheckResponse_SERVING
	}
	p.hs.SetServingStatus("", st)
	p.hs.SetServingStatus(ServiceName, st)
	return st
}

// Run calls Sync every interval until ctx is cancelled, then marks every
// service NOT_SERVING so watchers see the shutdown.
func (p *Probe) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	last := p.Sync()
	for {
		select {
		case <-ctx.Done():
			p.hs.Shutdown()
			return
		case <-t.C:
			if st := p.Sync(); st != last {
				slog.Info("probe: health changed", "status", st.String())
				last = st
			}
		}
	}
}
