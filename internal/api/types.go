package api

import "github.com/garagemon/garagemon/internal/alerts"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	// State is unknown | healthy | degraded | critical.
	State              string   `json:"state"`
	VehicleCount       int      `json:"vehicle_count"`
	CompleteCount      int      `json:"complete_count"`
	HealthyCount       int      `json:"healthy_count"`
	SensorFailureCount int      `json:"sensor_failure_count"`
	SevereStressCount  int      `json:"severe_stress_count"`
	AverageScore       *float64 `json:"average_score,omitempty"`
	AlertCount         int      `json:"alert_count"`
}

// ReadingsResponse holds the latest value per sensor kind; nil means the
// kind has never reported.
type ReadingsResponse struct {
	RPM         *float64 `json:"rpm"`
	EngineLoad  *float64 `json:"engine_load"`
	CoolantTemp *float64 `json:"coolant_temp"`
}

// VehicleResponse is one entry in GET /api/v1/vehicles or the body of
// GET /api/v1/vehicles/{id}.
type VehicleResponse struct {
	ID          string           `json:"id"`
	HasAll      bool             `json:"has_all"`
	Score       *float64         `json:"score,omitempty"`
	Alert       string           `json:"alert"`
	Status      string           `json:"status"` // the report line
	Readings    ReadingsResponse `json:"readings"`
	Missing     []string         `json:"missing"`
	Diagnostics []DiagnosticHint `json:"diagnostics"`
}

// SensorAggregate summarises one sensor kind across every vehicle that has
// reported it.
type SensorAggregate struct {
	Reporting int      `json:"reporting"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Mean      *float64 `json:"mean,omitempty"`
}

// SensorsResponse is the payload for GET /api/v1/sensors.
type SensorsResponse struct {
	RPM         SensorAggregate `json:"rpm"`
	EngineLoad  SensorAggregate `json:"engine_load"`
	CoolantTemp SensorAggregate `json:"coolant_temp"`
}

// SnapshotResponse is the payload for GET /api/v1/snapshot and the message
// pushed to websocket clients.
type SnapshotResponse struct {
	Health      HealthResponse    `json:"health"`
	Vehicles    []VehicleResponse `json:"vehicles"`
	Alerts      []alerts.Alert    `json:"alerts"`
	GeneratedAt string            `json:"generated_at"` // RFC3339
}

type errorResponse struct {
	Error string `json:"error"`
}
