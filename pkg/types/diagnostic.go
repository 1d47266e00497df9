package types

import (
	"fmt"
	"strings"
)

// SensorKind identifies one of the diagnostic channels tracked per vehicle.
type SensorKind int

const (
	RPM SensorKind = iota
	EngineLoad
	CoolantTemp
	// Unknown marks unrecognised adapter input. It is never stored.
	Unknown
)

// NumKinds is the number of tracked sensor kinds (Unknown excluded).
const NumKinds = int(Unknown)

var kindNames = [...]string{
	RPM:         "RPM",
	EngineLoad:  "EngineLoad",
	CoolantTemp: "CoolantTemp",
	Unknown:     "Unknown",
}

// Kinds returns the tracked sensor kinds in canonical order.
func Kinds() []SensorKind {
	return []SensorKind{RPM, EngineLoad, CoolantTemp}
}

// String returns the canonical name of k.
func (k SensorKind) String() string {
	if k < 0 || k > Unknown {
		return kindNames[Unknown]
	}
	return kindNames[k]
}

// Valid reports whether k is one of the tracked kinds.
func (k SensorKind) Valid() bool {
	return k >= RPM && k < Unknown
}

// ParseSensorKind maps text to a SensorKind. Surrounding whitespace is
// ignored and matching is case-insensitive. Unrecognised input returns Unknown.
func ParseSensorKind(s string) SensorKind {
	s = strings.TrimSpace(s)
	for _, k := range Kinds() {
		if strings.EqualFold(s, kindNames[k]) {
			return k
		}
	}
	return Unknown
}

// MarshalText implements encoding.TextMarshaler.
func (k SensorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names are rejected.
func (k *SensorKind) UnmarshalText(b []byte) error {
	parsed := ParseSensorKind(string(b))
	if parsed == Unknown {
		return fmt.Errorf("types: unknown sensor kind %q", string(b))
	}
	*k = parsed
	return nil
}

// Reading is one sensor value. A vehicle keeps at most one Reading per kind.
type Reading struct {
	Kind  SensorKind
	Value float64
}

// Diagnostic is a Reading addressed to a vehicle, as produced by an
// ingestion adapter.
type Diagnostic struct {
	VehicleID string
	Reading
}
