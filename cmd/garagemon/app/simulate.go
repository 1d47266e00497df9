package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garagemon/garagemon/internal/metrics"
	"github.com/garagemon/garagemon/internal/registry"
	"github.com/garagemon/garagemon/internal/report"
	"github.com/garagemon/garagemon/internal/workload"
)

func newSimulateCommand(e *env) *cobra.Command {
	so := &SimulateOptions{}
	var withMetrics bool
	cmd := &cobra.Command{
		Use:   "simulate <diagnostics.csv>",
		Short: "Load diagnostics, then time the real-time workload sequentially and concurrently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := workload.Options{
				Iterations:   e.cfg.Simulate.Iterations,
				Threads:      e.cfg.Simulate.Threads,
				Seed:         e.cfg.Simulate.Seed,
				SeedVehicles: e.cfg.Simulate.SeedVehicles,
			}
			flags := cmd.Flags()
			if flags.Changed("iterations") {
				opts.Iterations = so.Iterations
			}
			if flags.Changed("threads") {
				opts.Threads = so.Threads
			}
			if flags.Changed("seed") {
				opts.Seed = so.Seed
			}
			if opts.Iterations < 0 {
				return fmt.Errorf("--iterations must not be negative")
			}
			if opts.Threads < 1 {
				return fmt.Errorf("--threads must be at least 1")
			}
			return e.simulate(args[0], opts, withMetrics)
		},
	}
	so.AddFlags(cmd.Flags())
	cmd.Flags().BoolVar(&withMetrics, "metrics", false, "print Prometheus metrics after the runs")
	return cmd
}

func (e *env) simulate(path string, opts workload.Options, withMetrics bool) error {
	m := metrics.New()
	var ropts []registry.Option
	if withMetrics {
		ropts = append(ropts, registry.WithObserver(m.Observe))
	}
	reg := e.newRegistry(ropts...)
	if err := m.RegisterFleet(reg); err != nil {
		return err
	}

	if err := e.loadFleet(path, reg, m); err != nil {
		return err
	}
	p := report.NewPrinter(e.stdout)
	if err := p.Statuses(reg.Statuses()); err != nil {
		return err
	}
	if err := p.SimulationHeading(opts.Iterations, opts.Threads); err != nil {
		return err
	}

	for _, run := range []struct {
		label      string
		concurrent bool
	}{
		{"Single-thread", false},
		{"Multi-thread", true},
	} {
		opts.Concurrent = run.concurrent
		res := workload.Run(reg, opts)
		m.ObserveWorkload(res)
		avg, ok := reg.AverageScore()
		if err := p.Run(run.label, res, avg, ok); err != nil {
			return err
		}
	}

	if withMetrics {
		fmt.Fprintln(e.stdout)
		return m.WriteText(e.stdout)
	}
	return nil
}
