package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garagemon/garagemon/internal/ingest"
	"github.com/garagemon/garagemon/internal/metrics"
	"github.com/garagemon/garagemon/internal/registry"
	"github.com/garagemon/garagemon/internal/report"
)

func newLoadCommand(e *env) *cobra.Command {
	var withMetrics bool
	cmd := &cobra.Command{
		Use:   "load <diagnostics.csv>",
		Short: "Load diagnostics and print the status of every vehicle",
		Long: "Load reads CarId,Type,Value lines, prints a warning for every rejected " +
			"line and the number of rows loaded to stderr, then prints one status line " +
			"per vehicle. It fails only when no line is valid.",
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m := metrics.New()
			var opts []registry.Option
			if withMetrics {
				opts = append(opts, registry.WithObserver(m.Observe))
			}
			reg := e.newRegistry(opts...)
			if err := m.RegisterFleet(reg); err != nil {
				return err
			}

			if err := e.loadFleet(args[0], reg, m); err != nil {
				return err
			}
			if err := report.NewPrinter(e.stdout).Statuses(reg.Statuses()); err != nil {
				return err
			}
			if withMetrics {
				fmt.Fprintln(e.stdout)
				return m.WriteText(e.stdout)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withMetrics, "metrics", false, "print Prometheus metrics after the report")
	return cmd
}

// loadFleet bulk-loads path into reg and reports the outcome on stderr.
func (e *env) loadFleet(path string, reg *registry.Registry, m *metrics.Metrics) error {
	res, err := ingest.LoadFile(path, reg)
	m.RecordLoad(res)
	for _, le := range res.Errors {
		fmt.Fprintf(e.stderr, "CSV Warning: %s\n", le.Error())
	}
	if err != nil {
		if errors.Is(err, ingest.ErrNoValidRows) {
			fmt.Fprintf(e.stderr, "CSV Error: %v\n", err)
		} else {
			fmt.Fprintf(e.stderr, "Error: %v\n", err)
		}
		return fmt.Errorf("%w: %w", ErrReported, err)
	}
	fmt.Fprintf(e.stderr, "Loaded %d row(s).\n", res.Rows)
	return nil
}
