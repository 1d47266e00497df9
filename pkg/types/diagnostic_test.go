package types

import (
	"encoding/json"
	"testing"
)

func TestParseSensorKind(t *testing.T) {
	tests := []struct {
		in   string
		want SensorKind
	}{
		{"RPM", RPM},
		{"rpm", RPM},
		{"  rpm ", RPM},
		{"Rpm", RPM},
		{"EngineLoad", EngineLoad},
		{"engineload", EngineLoad},
		{"\tENGINELOAD\n", EngineLoad},
		{"CoolantTemp", CoolantTemp},
		{"coolanttemp", CoolantTemp},
		{"Coolant Temp", Unknown},
		{"Speed", Unknown},
		{"", Unknown},
		{"Unknown", Unknown},
	}
	for _, tc := range tests {
		if got := ParseSensorKind(tc.in); got != tc.want {
			t.Errorf("ParseSensorKind(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSensorKind_String(t *testing.T) {
	for _, k := range Kinds() {
		if got := ParseSensorKind(k.String()); got != k {
			t.Errorf("ParseSensorKind(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if Unknown.String() != "Unknown" {
		t.Errorf("Unknown.String() = %q", Unknown.String())
	}
	if SensorKind(42).String() != "Unknown" {
		t.Errorf("out-of-range String() = %q, want Unknown", SensorKind(42).String())
	}
}

func TestSensorKind_Valid(t *testing.T) {
	if Unknown.Valid() {
		t.Error("Unknown.Valid() = true")
	}
	if len(Kinds()) != NumKinds {
		t.Errorf("len(Kinds()) = %d, want %d", len(Kinds()), NumKinds)
	}
	for _, k := range Kinds() {
		if !k.Valid() {
			t.Errorf("%v.Valid() = false", k)
		}
	}
}

func TestSensorKind_JSON(t *testing.T) {
	b, err := json.Marshal(map[string]SensorKind{"kind": CoolantTemp})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"kind":"CoolantTemp"}` {
		t.Errorf("Marshal = %s", b)
	}

	var out struct {
		Kind SensorKind `json:"kind"`
	}
	if err := json.Unmarshal([]byte(`{"kind":"engineLoad"}`), &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Kind != EngineLoad {
		t.Errorf("Kind = %v, want EngineLoad", out.Kind)
	}
	if err := json.Unmarshal([]byte(`{"kind":"boost"}`), &out); err == nil {
		t.Error("Unmarshal unknown kind: expected error, got nil")
	}
}
