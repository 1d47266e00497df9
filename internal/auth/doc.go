// Package auth enforces API-key authentication on the HTTP API and the gRPC
// services.
//
// A Guard built from config.AuthConfig is a pass-through unless mode is
// "apikey" and the key environment variable resolves to a non-empty value.
// Rejected HTTP requests get 401 with a JSON error body; rejected gRPC calls
// get codes.Unauthenticated.
package auth
