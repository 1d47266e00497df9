// Package server runs the serve-mode listeners (HTTP API, websocket stream,
// metrics and gRPC health) under one lifecycle. Every sub-server starts with
// Start(ctx) and shuts down gracefully when ctx is cancelled; the first
// failure cancels the rest.
package server
