package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/garagemon/garagemon/internal/alerts"
	"github.com/garagemon/garagemon/internal/api"
	"github.com/garagemon/garagemon/internal/auth"
	"github.com/garagemon/garagemon/internal/config"
	"github.com/garagemon/garagemon/internal/metrics"
	"github.com/garagemon/garagemon/internal/probe"
	"github.com/garagemon/garagemon/internal/registry"
	"github.com/garagemon/garagemon/internal/report"
	"github.com/garagemon/garagemon/internal/server"
	"github.com/garagemon/garagemon/internal/ws"
)

func newServeCommand(e *env) *cobra.Command {
	so := &ServeOptions{}
	cmd := &cobra.Command{
		Use:   "serve <diagnostics.csv>",
		Short: "Load diagnostics and serve the fleet over HTTP, websocket and gRPC",
		Long: "Serve loads the CSV, prints the status report, then exposes the " +
			"read-only REST API under /api/v1, a snapshot stream at /ws/stream, " +
			"Prometheus metrics at /metrics and grpc.health.v1 on the gRPC port " +
			"until interrupted. Alert rules reload when the config file changes.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.serve(cmd.Context(), args[0], so)
		},
	}
	so.AddFlags(cmd.Flags())
	return cmd
}

// stack is every serve-mode component wired to one registry.
type stack struct {
	reg     *registry.Registry
	metrics *metrics.Metrics
	alerts  *alerts.Engine
	hub     *ws.Hub
	probe   *probe.Probe
	guard   *auth.Guard
	grpc    *grpc.Server
	handler http.Handler
}

func (e *env) newStack() (*stack, error) {
	cfg := e.cfg
	s := &stack{metrics: metrics.New()}
	s.reg = e.newRegistry(registry.WithObserver(s.metrics.Observe))
	s.alerts = alerts.New(cfg.Alerts)
	if err := s.metrics.RegisterFleet(s.reg); err != nil {
		return nil, err
	}
	s.hub = ws.New(s.reg, s.alerts, cfg.Server.BroadcastInterval)
	s.probe = probe.New(s.reg)
	s.guard = auth.New(cfg.Server.Auth)

	s.grpc = grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.guard.UnaryInterceptor()),
		grpc.ChainStreamInterceptor(s.guard.StreamInterceptor()),
	)
	s.probe.Register(s.grpc)
	reflection.Register(s.grpc)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.guard.Middleware(api.New(s.reg, s.alerts)))
	mux.Handle("/ws/stream", s.guard.Middleware(s.hub))
	mux.Handle("/metrics", s.guard.Middleware(s.metrics.Handler()))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok")) //nolint:errcheck
	})
	s.handler = mux

	if s.guard.Enabled() {
		slog.Info("garagemon: api key auth enabled", "header", cfg.Server.Auth.EffectiveHeader())
	}
	return s, nil
}

// load bulk-loads path, then evaluates alert rules once over the loaded
// fleet and subscribes the engine to later ingests. Readings of a vehicle
// that is still mid-load never reach the engine.
func (e *env) load(s *stack, path string) error {
	if err := e.loadFleet(path, s.reg, s.metrics); err != nil {
		return err
	}
	s.alerts.Sweep(s.reg.Snapshot())
	s.reg.Subscribe(s.alerts.Observe)
	s.probe.Sync()
	return nil
}

// reload applies a changed config file. Only alert rules, webhooks and the
// log level are hot-reloadable.
func (e *env) reload(s *stack) func(*config.Config) {
	return func(cfg *config.Config) {
		if e.opts.LogLevel == "" {
			e.level.Set(cfg.Log.SlogLevel())
		}
		if cfg.Scoring.StressThreshold != e.cfg.Scoring.StressThreshold {
			slog.Warn("garagemon: scoring.stress_threshold changes need a restart",
				"running", e.cfg.Scoring.StressThreshold, "file", cfg.Scoring.StressThreshold)
		}
		s.alerts.SetRules(cfg.Alerts)
		s.alerts.Sweep(s.reg.Snapshot())
		s.hub.Broadcast()
	}
}

func (e *env) serve(ctx context.Context, path string, so *ServeOptions) error {
	s, err := e.newStack()
	if err != nil {
		return err
	}
	if err := e.load(s, path); err != nil {
		return err
	}
	if err := report.NewPrinter(e.stdout).Statuses(s.reg.Statuses()); err != nil {
		return err
	}

	httpAddr := so.HTTPAddr
	if httpAddr == "" {
		httpAddr = fmt.Sprintf(":%d", e.cfg.Server.HTTPPort)
	}
	grpcAddr := so.GRPCAddr
	if grpcAddr == "" {
		grpcAddr = fmt.Sprintf(":%d", e.cfg.Server.GRPCPort)
	}

	mgr := server.NewManager(
		server.NewHTTP(httpAddr, s.handler),
		server.NewGRPC(grpcAddr, s.grpc),
	)
	mgr.Go(s.hub.Run)
	mgr.Go(func(ctx context.Context) {
		s.probe.Run(ctx, e.cfg.Server.BroadcastInterval)
	})
	if e.opts.ConfigPath != "" {
		mgr.Go(func(ctx context.Context) {
			if err := config.Watch(ctx, e.opts.ConfigPath, e.reload(s)); err != nil {
				slog.Error("garagemon: config watch stopped", "err", err)
			}
		})
	}

	slog.Info("garagemon: serving",
		"vehicles", s.reg.Count(),
		"http", httpAddr,
		"grpc", grpcAddr,
		"alert_rules", len(s.alerts.Rules()),
	)
	err = mgr.Start(ctx)
	s.alerts.Wait()
	slog.Info("garagemon: stopped")
	return err
}
