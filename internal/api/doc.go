// Package api implements the read-only HTTP REST API for garagemon serve mode.
//
// New(fleet, alerts) returns an http.Handler that serves:
//
//	GET /api/v1/health          fleet state, per-alert counts, average score
//	GET /api/v1/vehicles        every vehicle ([]VehicleResponse)
//	GET /api/v1/vehicles/{id}   one vehicle; 404 if never seen
//	GET /api/v1/sensors         per-sensor-kind aggregates across the fleet
//	GET /api/v1/alerts          firing and recently resolved alerts
//	GET /api/v1/snapshot        every vehicle plus health and generated_at
//
// All endpoints respond with Content-Type: application/json and return 405
// for non-GET methods. Diagnostics cannot be submitted over HTTP.
package api
