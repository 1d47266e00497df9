// Package app builds the garagemon command tree.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/garagemon/garagemon/internal/config"
	"github.com/garagemon/garagemon/internal/registry"
)

// ErrReported marks a failure that has already been explained on stderr.
var ErrReported = errors.New("failure already reported")

// env is the state shared by every subcommand once flags are parsed.
type env struct {
	opts   *Options
	cfg    *config.Config
	level  *slog.LevelVar
	stdout io.Writer
	stderr io.Writer
}

// NewRootCommand builds the garagemon command with all subcommands.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	e := &env{
		opts:   NewOptions(),
		level:  new(slog.LevelVar),
		stdout: stdout,
		stderr: stderr,
	}

	cmd := &cobra.Command{
		Use:   "garagemon",
		Short: "Fleet vehicle sensor registry",
		Long: "garagemon ingests RPM, engine load and coolant temperature readings, " +
			"scores every vehicle and flags sensor failures and severe engine stress.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return e.init()
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	e.opts.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newLoadCommand(e),
		newSimulateCommand(e),
		newServeCommand(e),
	)
	return cmd
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrReported) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

// init loads the env file and config, then installs the default logger.
func (e *env) init() error {
	if e.opts.EnvFile != "" {
		if err := godotenv.Load(e.opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %q: %w", e.opts.EnvFile, err)
		}
	}

	cfg := config.Default()
	if e.opts.ConfigPath != "" {
		loaded, err := config.Load(e.opts.ConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	e.cfg = cfg

	if err := e.applyLevel(cfg); err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(e.stderr, &slog.HandlerOptions{Level: e.level})))
	slog.Debug("garagemon: config ready", "config", e.opts.ConfigPath, "level", e.level.Level().String())
	return nil
}

// applyLevel sets the log level from --log-level, falling back to cfg.
func (e *env) applyLevel(cfg *config.Config) error {
	if e.opts.LogLevel == "" {
		e.level.Set(cfg.Log.SlogLevel())
		return nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(e.opts.LogLevel)); err != nil {
		return fmt.Errorf("--log-level %q: want debug|info|warn|error", e.opts.LogLevel)
	}
	e.level.Set(lvl)
	return nil
}

func (e *env) newRegistry(opts ...registry.Option) *registry.Registry {
	opts = append([]registry.Option{registry.WithStressThreshold(e.cfg.Scoring.StressThreshold)}, opts...)
	return registry.New(opts...)
}
