package metrics

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/garagemon/garagemon/internal/ingest"
	"github.com/garagemon/garagemon/internal/registry"
	"github.com/garagemon/garagemon/internal/workload"
	"github.com/garagemon/garagemon/pkg/types"
)

// newFleet returns a registry wired to m with:
//
//	Car1  score 70  healthy
//	Car2  score 30  severe stress
//	Car3  RPM only  sensor failure
func newFleet(t *testing.T, m *Metrics) *registry.Registry {
	t.Helper()
	reg := registry.New(registry.WithObserver(m.Observe))
	if err := m.RegisterFleet(reg); err != nil {
		t.Fatalf("RegisterFleet: %v", err)
	}
	// 100 - (1000/100 + 0*0.5 + (100-90)*2) = 70
	reg.Ingest("Car1", types.RPM, 1000)
	reg.Ingest("Car1", types.EngineLoad, 0)
	reg.Ingest("Car1", types.CoolantTemp, 100)
	// 100 - (5000/100 + 0*0.5 + (100-90)*2) = 30
	reg.Ingest("Car2", types.RPM, 5000)
	reg.Ingest("Car2", types.EngineLoad, 0)
	reg.Ingest("Car2", types.CoolantTemp, 100)
	reg.Ingest("Car3", types.RPM, 800)
	return reg
}

func scrape(t *testing.T, m *Metrics) map[string]*dto.MetricFamily {
	t.Helper()
	var buf bytes.Buffer
	if err := m.WriteText(&buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	mfs, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return mfs
}

func TestFleetGauges(t *testing.T) {
	m := New()
	newFleet(t, m)
	mfs := scrape(t, m)

	if got := Sum(mfs["garagemon_vehicles"]); got != 3 {
		t.Errorf("vehicles: got %v, want 3", got)
	}
	if got := Sum(mfs["garagemon_vehicles_complete"]); got != 2 {
		t.Errorf("vehicles_complete: got %v, want 2", got)
	}
	if got := Sum(mfs["garagemon_fleet_average_score"]); got != 50 {
		t.Errorf("fleet_average_score: got %v, want 50", got)
	}
	if got, ok := Labeled(mfs["garagemon_vehicle_score"], "vehicle", "Car1"); !ok || got != 70 {
		t.Errorf("vehicle_score{Car1}: got %v (found=%v), want 70", got, ok)
	}
	if _, ok := Labeled(mfs["garagemon_vehicle_score"], "vehicle", "Car3"); ok {
		t.Error("incomplete vehicle Car3 must not export a score")
	}

	alerts := mfs["garagemon_vehicle_alerts"]
	for label, want := range map[string]float64{"none": 1, "severe-stress": 1, "sensor-failure": 1} {
		if got, ok := Labeled(alerts, "alert", label); !ok || got != want {
			t.Errorf("vehicle_alerts{%s}: got %v (found=%v), want %v", label, got, ok, want)
		}
	}
}

func TestFleetGauges_NoCompleteVehicles(t *testing.T) {
	m := New()
	reg := registry.New()
	if err := m.RegisterFleet(reg); err != nil {
		t.Fatalf("RegisterFleet: %v", err)
	}
	reg.Ingest("Car1", types.RPM, 900)

	mfs := scrape(t, m)
	if _, ok := mfs["garagemon_fleet_average_score"]; ok {
		t.Error("fleet_average_score should be absent when no vehicle is complete")
	}
	if got := Sum(mfs["garagemon_vehicles"]); got != 1 {
		t.Errorf("vehicles: got %v, want 1", got)
	}
}

func TestDiagnosticsCounter(t *testing.T) {
	m := New()
	newFleet(t, m)
	mfs := scrape(t, m)

	fam := mfs["garagemon_diagnostics_ingested_total"]
	if got := Sum(fam); got != 7 {
		t.Errorf("diagnostics_ingested_total: got %v, want 7", got)
	}
	if got, _ := Labeled(fam, "sensor", "RPM"); got != 3 {
		t.Errorf("diagnostics_ingested_total{RPM}: got %v, want 3", got)
	}
}

func TestRecordLoad(t *testing.T) {
	m := New()
	m.RecordLoad(ingest.Result{
		Rows: 1,
		Errors: []ingest.LineError{
			{Line: 2, Reason: ingest.ReasonUnknownType, Field: "Speed"},
			{Line: 3, Reason: ingest.ReasonInvalidValue, Field: "abc"},
			{Line: 4, Reason: ingest.ReasonInvalidValue, Field: ""},
		},
	})
	mfs := scrape(t, m)

	fam := mfs["garagemon_ingest_errors_total"]
	if got, _ := Labeled(fam, "reason", "invalid_value"); got != 2 {
		t.Errorf("ingest_errors_total{invalid_value}: got %v, want 2", got)
	}
	if got, _ := Labeled(fam, "reason", "unknown_type"); got != 1 {
		t.Errorf("ingest_errors_total{unknown_type}: got %v, want 1", got)
	}
}

func TestObserveWorkload(t *testing.T) {
	m := New()
	m.ObserveWorkload(workload.Result{Mode: workload.ModeSequential, Elapsed: 20 * time.Millisecond})
	m.ObserveWorkload(workload.Result{Mode: workload.ModeConcurrent, Elapsed: 5 * time.Millisecond})
	mfs := scrape(t, m)

	fam := mfs["garagemon_workload_duration_seconds"]
	if fam == nil {
		t.Fatal("workload_duration_seconds missing")
	}
	if len(fam.GetMetric()) != 2 {
		t.Fatalf("want 2 series (one per mode), got %d", len(fam.GetMetric()))
	}
	for _, s := range fam.GetMetric() {
		if s.GetHistogram().GetSampleCount() != 1 {
			t.Errorf("series %v: sample count %d, want 1", s.GetLabel(), s.GetHistogram().GetSampleCount())
		}
	}
}

func TestWriteText_OnlyOwnFamilies(t *testing.T) {
	m := New()
	newFleet(t, m)
	for name := range scrape(t, m) {
		if len(name) < len(namespace) || name[:len(namespace)] != namespace {
			t.Errorf("unexpected family %q in WriteText output", name)
		}
	}
}

func TestHandler(t *testing.T) {
	m := New()
	newFleet(t, m)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	mfs, err := Parse(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := Sum(mfs["garagemon_vehicles"]); got != 3 {
		t.Errorf("vehicles via handler: got %v, want 3", got)
	}
	if _, ok := mfs["go_goroutines"]; !ok {
		t.Error("handler should include Go runtime metrics")
	}
}

func TestRegisterFleet_Twice(t *testing.T) {
	m := New()
	reg := registry.New()
	if err := m.RegisterFleet(reg); err != nil {
		t.Fatalf("first RegisterFleet: %v", err)
	}
	if err := m.RegisterFleet(reg); err == nil {
		t.Error("second RegisterFleet should fail")
	}
}

func TestSum_Nil(t *testing.T) {
	if got := Sum(nil); got != 0 {
		t.Errorf("Sum(nil): got %v", got)
	}
}
