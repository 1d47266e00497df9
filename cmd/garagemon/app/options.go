package app

import (
	"github.com/spf13/pflag"
)

// Options are the flags shared by every subcommand.
type Options struct {
	// ConfigPath is an optional YAML config file. Defaults apply without one.
	ConfigPath string

	// LogLevel overrides log.level from the config file when set.
	LogLevel string

	// EnvFile is loaded into the environment before the config is read.
	// A missing file is not an error.
	EnvFile string
}

// NewOptions returns Options with defaults.
func NewOptions() *Options {
	return &Options{EnvFile: ".env"}
}

// AddFlags binds the options to fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigPath, "config", "c", o.ConfigPath, "path to a YAML config file")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "log level: debug|info|warn|error (overrides config)")
	fs.StringVar(&o.EnvFile, "env-file", o.EnvFile, "dotenv file loaded before reading config")
}

// SimulateOptions override the simulate section of the config.
type SimulateOptions struct {
	Iterations int
	Threads    int
	Seed       uint64
}

// AddFlags binds the options to fs. Defaults are zero; only flags the user
// sets take effect.
func (o *SimulateOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVarP(&o.Iterations, "iterations", "n", 0, "rounds per worker (default from config, 1000)")
	fs.IntVarP(&o.Threads, "threads", "t", 0, "workers in the concurrent run (default from config, 4)")
	fs.Uint64Var(&o.Seed, "seed", 0, "random seed for generated readings (default from config, 12345)")
}

// ServeOptions override the server section of the config.
type ServeOptions struct {
	HTTPAddr string
	GRPCAddr string
}

// AddFlags binds the options to fs.
func (o *ServeOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.HTTPAddr, "http-addr", "", "HTTP listen address (default :<server.http_port>)")
	fs.StringVar(&o.GRPCAddr, "grpc-addr", "", "gRPC listen address (default :<server.grpc_port>)")
}
