package vehicle

import "github.com/garagemon/garagemon/pkg/types"

// slot is one optional reading. ok=false means no reading of that kind has
// arrived yet, which is distinct from a measured zero.
type slot struct {
	value float64
	ok    bool
}

// Vehicle is the latest value per sensor kind for one vehicle identity.
// It is a value type: copying a Vehicle yields an independent snapshot.
type Vehicle struct {
	ID       string
	readings [types.NumKinds]slot
}

// New returns a Vehicle with no readings.
func New(id string) Vehicle {
	return Vehicle{ID: id}
}

// Update overwrites the stored reading for kind. Unknown kinds are ignored.
func (v *Vehicle) Update(kind types.SensorKind, value float64) {
	if !kind.Valid() {
		return
	}
	v.readings[kind] = slot{value: value, ok: true}
}

// Reading returns the latest value for kind and whether one has been seen.
func (v Vehicle) Reading(kind types.SensorKind) (float64, bool) {
	if !kind.Valid() {
		return 0, false
	}
	s := v.readings[kind]
	return s.value, s.ok
}

func (v Vehicle) RPM() (float64, bool)         { return v.Reading(types.RPM) }
func (v Vehicle) EngineLoad() (float64, bool)  { return v.Reading(types.EngineLoad) }
func (v Vehicle) CoolantTemp() (float64, bool) { return v.Reading(types.CoolantTemp) }

// Present returns how many sensor kinds have reported.
func (v Vehicle) Present() int {
	n := 0
	for _, s := range v.readings {
		if s.ok {
			n++
		}
	}
	return n
}

// Complete reports whether RPM, EngineLoad and CoolantTemp are all present.
func (v Vehicle) Complete() bool {
	return v.Present() == types.NumKinds
}

// Missing lists the sensor kinds that have not reported yet.
func (v Vehicle) Missing() []types.SensorKind {
	var out []types.SensorKind
	for _, k := range types.Kinds() {
		if !v.readings[k].ok {
			out = append(out, k)
		}
	}
	return out
}

// Score returns the performance score. ok is false while the vehicle is
// incomplete.
func (v Vehicle) Score() (score float64, ok bool) {
	if !v.Complete() {
		return 0, false
	}
	return Score(
		v.readings[types.RPM].value,
		v.readings[types.EngineLoad].value,
		v.readings[types.CoolantTemp].value,
	), true
}
