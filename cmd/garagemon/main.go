// Command garagemon loads vehicle diagnostics from CSV, reports per-vehicle
// health, drives the real-time workload generator and serves the fleet over
// HTTP, websocket and gRPC.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/garagemon/garagemon/cmd/garagemon/app"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := app.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
