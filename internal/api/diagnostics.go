package api

import (
	"fmt"
	"sort"
	"strings"

	"github.com/garagemon/garagemon/internal/registry"
	"github.com/garagemon/garagemon/internal/vehicle"
	"github.com/garagemon/garagemon/pkg/types"
)

// Hint thresholds for individual readings.
const (
	hotCoolant      = 110.0
	overheatCoolant = 120.0
	highRPM         = 6000.0
	heavyLoad       = 90.0
)

// DiagnosticHint is one human-readable insight about a vehicle.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical".
	Level  string `json:"level"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	// Value is the reading or score the hint is about, when there is one.
	Value *float64 `json:"value,omitempty"`
}

var levelRank = map[string]int{"critical": 0, "warning": 1, "info": 2, "ok": 3}

// computeDiagnostics derives hints for one vehicle, critical first.
func computeDiagnostics(e registry.Entry) []DiagnosticHint {
	var hints []DiagnosticHint
	v := e.Vehicle

	if missing := v.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, k := range missing {
			names[i] = k.String()
		}
		level := "warning"
		if len(missing) == types.NumKinds {
			level = "critical"
		}
		hints = append(hints, DiagnosticHint{
			Key:   "missing_sensors",
			Level: level,
			Title: "Missing sensors",
			Detail: fmt.Sprintf(
				"No reading has arrived yet for %s. The score cannot be computed "+
					"until every sensor has reported at least once.",
				strings.Join(names, ", ")),
		})
	}

	if e.Status.Alert == vehicle.AlertSevereStress && e.Status.Score != nil {
		score := *e.Status.Score
		hints = append(hints, DiagnosticHint{
			Key:   "severe_stress",
			Level: "critical",
			Title: "Severe engine stress",
			Detail: fmt.Sprintf(
				"Score %.2f is below the stress threshold. Reduce load or RPM "+
					"and check the cooling system before the next trip.", score),
			Value: &score,
		})
	}

	if t, ok := v.CoolantTemp(); ok && t > hotCoolant {
		level, title := "warning", "Running hot"
		if t >= overheatCoolant {
			level, title = "critical", "Overheating"
		}
		hints = append(hints, DiagnosticHint{
			Key:   "coolant_temp",
			Level: level,
			Title: title,
			Detail: fmt.Sprintf(
				"Coolant is at %.1f°C. Every degree above 90°C costs two score "+
					"points. Check coolant level, thermostat and radiator fan.", t),
			Value: &t,
		})
	}

	if r, ok := v.RPM(); ok && r > highRPM {
		hints = append(hints, DiagnosticHint{
			Key:    "high_rpm",
			Level:  "warning",
			Title:  "High RPM",
			Detail: fmt.Sprintf("Engine speed is %.0f RPM, close to the red line.", r),
			Value:  &r,
		})
	}

	if l, ok := v.EngineLoad(); ok && l > heavyLoad {
		hints = append(hints, DiagnosticHint{
			Key:    "heavy_load",
			Level:  "warning",
			Title:  "Heavy engine load",
			Detail: fmt.Sprintf("Engine load is %.0f%%. Sustained load above 90%% accelerates wear.", l),
			Value:  &l,
		})
	}

	if len(hints) == 0 {
		score := 0.0
		if e.Status.Score != nil {
			score = *e.Status.Score
		}
		hints = append(hints, DiagnosticHint{
			Key:    "healthy",
			Level:  "ok",
			Title:  "Healthy",
			Detail: fmt.Sprintf("All sensors reporting; score %.2f.", score),
			Value:  &score,
		})
	}

	sort.SliceStable(hints, func(i, j int) bool {
		return levelRank[hints[i].Level] < levelRank[hints[j].Level]
	})
	return hints
}
