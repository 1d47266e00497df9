package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/garagemon/garagemon/internal/alerts"
	"github.com/garagemon/garagemon/internal/registry"
	"github.com/garagemon/garagemon/internal/vehicle"
	"github.com/garagemon/garagemon/pkg/types"
)

// Fleet is the registry read path the API needs.
type Fleet interface {
	Snapshot() []registry.Entry
	Entry(id string) (registry.Entry, bool)
}

// AlertLister returns the alerts to expose. *alerts.Engine satisfies it.
type AlertLister interface {
	Active() []alerts.Alert
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	fleet  Fleet
	alerts AlertLister
	mux    *http.ServeMux
}

// New creates a Handler over fleet and registers all routes. al may be nil,
// in which case the alerts endpoint returns an empty list.
func New(fleet Fleet, al AlertLister) http.Handler {
	h := &Handler{fleet: fleet, alerts: al, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.get(h.health))
	h.mux.HandleFunc("/api/v1/vehicles", h.get(h.listVehicles))
	h.mux.HandleFunc("/api/v1/vehicles/", h.get(h.getVehicle)) // subtree, extracts {id}
	h.mux.HandleFunc("/api/v1/sensors", h.get(h.sensors))
	h.mux.HandleFunc("/api/v1/alerts", h.get(h.listAlerts))
	h.mux.HandleFunc("/api/v1/snapshot", h.get(h.snapshot))

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// get rejects every method but GET with 405.
func (h *Handler) get(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		next(w, r)
	}
}

// --- route handlers ---------------------------------------------------------

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, buildHealth(h.fleet.Snapshot(), h.activeAlerts()))
}

func (h *Handler) listVehicles(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, toVehicleResponses(h.fleet.Snapshot()))
}

func (h *Handler) getVehicle(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/vehicles/")
	if id == "" {
		h.listVehicles(w, r)
		return
	}

	e, ok := h.fleet.Entry(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, "vehicle not found")
		return
	}
	jsonResp(w, http.StatusOK, toVehicleResponse(e))
}

func (h *Handler) sensors(w http.ResponseWriter, _ *http.Request) {
	entries := h.fleet.Snapshot()
	jsonResp(w, http.StatusOK, SensorsResponse{
		RPM:         aggregate(entries, types.RPM),
		EngineLoad:  aggregate(entries, types.EngineLoad),
		CoolantTemp: aggregate(entries, types.CoolantTemp),
	})
}

func (h *Handler) listAlerts(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, h.activeAlerts())
}

func (h *Handler) snapshot(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, BuildSnapshot(h.fleet, h.alerts, time.Now()))
}

func (h *Handler) activeAlerts() []alerts.Alert {
	if h.alerts == nil {
		return []alerts.Alert{}
	}
	out := h.alerts.Active()
	if out == nil {
		return []alerts.Alert{}
	}
	return out
}

// BuildSnapshot assembles the full fleet view from one registry snapshot.
// al may be nil.
func BuildSnapshot(fleet Fleet, al AlertLister, now time.Time) SnapshotResponse {
	entries := fleet.Snapshot()
	active := []alerts.Alert{}
	if al != nil {
		if a := al.Active(); a != nil {
			active = a
		}
	}
	return SnapshotResponse{
		Health:      buildHealth(entries, active),
		Vehicles:    toVehicleResponses(entries),
		Alerts:      active,
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

func buildHealth(entries []registry.Entry, active []alerts.Alert) HealthResponse {
	resp := HealthResponse{VehicleCount: len(entries)}
	for _, a := range active {
		if a.State == alerts.StateFiring {
			resp.AlertCount++
		}
	}
	if len(entries) == 0 {
		resp.State = "unknown"
		return resp
	}

	var total float64
	for _, e := range entries {
		switch e.Status.Alert {
		case vehicle.AlertSensorFailure:
			resp.SensorFailureCount++
		case vehicle.AlertSevereStress:
			resp.SevereStressCount++
		default:
			resp.HealthyCount++
		}
		if e.Status.HasAll && e.Status.Score != nil {
			resp.CompleteCount++
			total += *e.Status.Score
		}
	}
	if resp.CompleteCount > 0 {
		avg := total / float64(resp.CompleteCount)
		resp.AverageScore = &avg
	}

	switch {
	case resp.SevereStressCount > 0:
		resp.State = "critical"
	case resp.SensorFailureCount > 0:
		resp.State = "degraded"
	default:
		resp.State = "healthy"
	}
	return resp
}

func toVehicleResponses(entries []registry.Entry) []VehicleResponse {
	out := make([]VehicleResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toVehicleResponse(e))
	}
	return out
}

func toVehicleResponse(e registry.Entry) VehicleResponse {
	missing := make([]string, 0, types.NumKinds)
	for _, k := range e.Vehicle.Missing() {
		missing = append(missing, k.String())
	}
	alert := string(e.Status.Alert)
	if alert == "" {
		alert = "none"
	}
	return VehicleResponse{
		ID:     e.Vehicle.ID,
		HasAll: e.Status.HasAll,
		Score:  e.Status.Score,
		Alert:  alert,
		Status: e.Status.Line(),
		Readings: ReadingsResponse{
			RPM:         optional(e.Vehicle.RPM()),
			EngineLoad:  optional(e.Vehicle.EngineLoad()),
			CoolantTemp: optional(e.Vehicle.CoolantTemp()),
		},
		Missing:     missing,
		Diagnostics: computeDiagnostics(e),
	}
}

func aggregate(entries []registry.Entry, kind types.SensorKind) SensorAggregate {
	var agg SensorAggregate
	var lo, hi, sum float64
	for _, e := range entries {
		v, ok := e.Vehicle.Reading(kind)
		if !ok {
			continue
		}
		if agg.Reporting == 0 || v < lo {
			lo = v
		}
		if agg.Reporting == 0 || v > hi {
			hi = v
		}
		sum += v
		agg.Reporting++
	}
	if agg.Reporting > 0 {
		mean := sum / float64(agg.Reporting)
		agg.Min, agg.Max, agg.Mean = &lo, &hi, &mean
	}
	return agg
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
