package registry

import (
	"fmt"

	"github.com/garagemon/garagemon/internal/vehicle"
)

// Status is a point-in-time snapshot of one vehicle's health. It is computed
// fresh on every query.
type Status struct {
	ID string `json:"id"`

	// Known is false when the registry has never seen ID.
	Known bool `json:"known"`

	// HasAll reports whether all three sensor kinds have reported.
	HasAll bool `json:"has_all"`

	// Score is nil unless HasAll is true.
	Score *float64 `json:"score,omitempty"`

	Alert vehicle.Alert `json:"alert"`
}

// Line renders s the way the status report prints it:
//
//	Car: Car1 | Status: Sensor Failure Detected
//	Car: Car2 | Score: 12.34 | Alert: Severe Engine Stress
//	Car: Car3 | Score: 71.50
func (s Status) Line() string {
	if !s.HasAll || s.Score == nil {
		return fmt.Sprintf("Car: %s | Status: %s", s.ID, vehicle.AlertSensorFailure.Label())
	}
	line := fmt.Sprintf("Car: %s | Score: %.2f", s.ID, *s.Score)
	if s.Alert != vehicle.AlertNone {
		line += " | Alert: " + s.Alert.Label()
	}
	return line
}

// statusOf derives the Status of v. Callers must hold the registry lock.
func statusOf(v *vehicle.Vehicle, threshold float64) Status {
	st := Status{ID: v.ID, Known: true}
	score, ok := v.Score()
	st.HasAll = ok
	if ok {
		st.Score = &score
	}
	st.Alert = vehicle.Classify(ok, score, threshold)
	return st
}

// Summary is a single-pass aggregate over the whole fleet.
type Summary struct {
	Vehicles      int `json:"vehicles"`
	Complete      int `json:"complete"`
	SensorFailure int `json:"sensor_failure"`
	SevereStress  int `json:"severe_stress"`
	Healthy       int `json:"healthy"`

	// Average is the mean score over complete vehicles; nil when none are complete.
	Average *float64 `json:"average,omitempty"`
}

// Entry pairs a vehicle copy with the Status derived from it in the same
// critical section.
type Entry struct {
	Vehicle vehicle.Vehicle
	Status  Status
}
