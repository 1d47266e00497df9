package alerts

import (
	"strconv"
	"strings"

	"github.com/garagemon/garagemon/internal/registry"
	"github.com/garagemon/garagemon/internal/vehicle"
)

// evalCondition evaluates a rule condition against one vehicle.
//
// Supported expressions (field operator value):
//
//	score < 40
//	rpm > 6000
//	engine_load >= 90
//	coolant_temp > 110
//	alert == severe-stress
//	alert != none
//
// Numeric fields only fire when the vehicle has the underlying reading; score
// requires every sensor kind. Returns (fires, triggering value); an
// unparseable expression or unknown field never fires.
func evalCondition(cond string, v vehicle.Vehicle, st registry.Status) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	if field == "alert" {
		label := alertLabel(st.Alert)
		value := scoreOrZero(st)
		switch op {
		case "==":
			return label == rhs, value
		case "!=":
			return label != rhs, value
		default:
			return false, 0
		}
	}

	v1, ok := numericField(field, v, st)
	if !ok {
		return false, 0
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	return compareFloat(v1, op, threshold), v1
}

// numericField maps a field name to its current value, and whether it is set.
func numericField(field string, v vehicle.Vehicle, st registry.Status) (float64, bool) {
	switch field {
	case "score":
		if !st.HasAll || st.Score == nil {
			return 0, false
		}
		return *st.Score, true
	case "rpm":
		return v.RPM()
	case "engine_load":
		return v.EngineLoad()
	case "coolant_temp":
		return v.CoolantTemp()
	case "sensors_present":
		return float64(v.Present()), true
	default:
		return 0, false
	}
}

func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}

func alertLabel(a vehicle.Alert) string {
	if a == vehicle.AlertNone {
		return "none"
	}
	return string(a)
}

func scoreOrZero(st registry.Status) float64 {
	if st.Score == nil {
		return 0
	}
	return *st.Score
}
