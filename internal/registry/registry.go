package registry

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/garagemon/garagemon/internal/vehicle"
	"github.com/garagemon/garagemon/pkg/types"
)

// Observer is notified after every accepted ingest with the diagnostic and
// the vehicle copy and Status taken in the same critical section. Observers
// run after the registry lock is released, one ingest at a time and in ingest
// order. They may read the Registry but must not Ingest into it.
type Observer func(d types.Diagnostic, e Entry)

// Option configures a Registry.
type Option func(*Registry)

// WithStressThreshold overrides vehicle.DefaultStressThreshold.
func WithStressThreshold(threshold float64) Option {
	return func(r *Registry) { r.threshold = threshold }
}

// WithObserver registers an Observer at construction.
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observers = append(r.observers, o) }
}

// Registry is a thread-safe in-memory vehicle store keyed by vehicle ID.
// All exported methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	vehicles  map[string]*vehicle.Vehicle
	threshold float64
	observers []Observer

	// Observer calls are ticketed under mu and run in ticket order.
	notifyMu   sync.Mutex
	notifyCond *sync.Cond
	nextTicket uint64
	serving    uint64
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		vehicles:  make(map[string]*vehicle.Vehicle),
		threshold: vehicle.DefaultStressThreshold,
	}
	r.notifyCond = sync.NewCond(&r.notifyMu)
	for _, o := range opts {
		o(r)
	}
	return r
}

// StressThreshold returns the score below which vehicles are severely stressed.
func (r *Registry) StressThreshold() float64 {
	return r.threshold
}

// Ingest records value as the latest reading of kind for vehicle id, creating
// the vehicle on first sight. Unknown kinds are dropped.
func (r *Registry) Ingest(id string, kind types.SensorKind, value float64) {
	if !kind.Valid() {
		return
	}

	r.mu.Lock()
	v, ok := r.vehicles[id]
	if !ok {
		nv := vehicle.New(id)
		v = &nv
		r.vehicles[id] = v
	}
	v.Update(kind, value)
	observers := r.observers
	if len(observers) == 0 {
		r.mu.Unlock()
		slog.Debug("registry: ingest", "vehicle", id, "sensor", kind, "value", value)
		return
	}
	en := Entry{Vehicle: *v, Status: statusOf(v, r.threshold)}
	ticket := r.nextTicket
	r.nextTicket++
	r.mu.Unlock()

	slog.Debug("registry: ingest", "vehicle", id, "sensor", kind, "value", value)

	d := types.Diagnostic{VehicleID: id, Reading: types.Reading{Kind: kind, Value: value}}
	r.notifyMu.Lock()
	for r.serving != ticket {
		r.notifyCond.Wait()
	}
	for _, o := range observers {
		o(d, en)
	}
	r.serving++
	r.notifyCond.Broadcast()
	r.notifyMu.Unlock()
}

// Subscribe registers o for every later ingest.
func (r *Registry) Subscribe(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers[:len(r.observers):len(r.observers)], o)
}

// Status returns the current Status of vehicle id. An unknown id yields a
// zero Status (Known=false, HasAll=false, no alert).
func (r *Registry) Status(id string) Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vehicles[id]
	if !ok {
		return Status{ID: id}
	}
	return statusOf(v, r.threshold)
}

// Get returns a copy of vehicle id and whether it exists.
func (r *Registry) Get(id string) (vehicle.Vehicle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vehicles[id]
	if !ok {
		return vehicle.Vehicle{}, false
	}
	return *v, true
}

// Entry returns a copy of vehicle id with its Status, taken under one lock
// acquisition, and whether the vehicle exists.
func (r *Registry) Entry(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vehicles[id]
	if !ok {
		return Entry{}, false
	}
	return Entry{Vehicle: *v, Status: statusOf(v, r.threshold)}, true
}

// HasVehicle reports whether id has been seen.
func (r *Registry) HasVehicle(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.vehicles[id]
	return ok
}

// Count returns the number of known vehicles.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.vehicles)
}

// IDs returns all vehicle IDs in lexicographic order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedIDsLocked()
}

// AverageScore returns the mean score of all complete vehicles, computed in a
// single pass under one lock acquisition. ok is false when no vehicle is
// complete.
func (r *Registry) AverageScore() (avg float64, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum float64
	n := 0
	for _, v := range r.vehicles {
		if s, complete := v.Score(); complete {
			sum += s
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Snapshot returns a copy of every vehicle with its Status, in lexicographic
// ID order, taken under one lock acquisition.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.sortedIDsLocked()
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		v := r.vehicles[id]
		out = append(out, Entry{Vehicle: *v, Status: statusOf(v, r.threshold)})
	}
	return out
}

// Statuses returns the Status of every vehicle in lexicographic ID order.
func (r *Registry) Statuses() []Status {
	entries := r.Snapshot()
	out := make([]Status, len(entries))
	for i, e := range entries {
		out[i] = e.Status
	}
	return out
}

// Summary aggregates the whole fleet in a single pass.
func (r *Registry) Summary() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := Summary{Vehicles: len(r.vehicles)}
	var total float64
	for _, v := range r.vehicles {
		st := statusOf(v, r.threshold)
		switch st.Alert {
		case vehicle.AlertSensorFailure:
			sum.SensorFailure++
		case vehicle.AlertSevereStress:
			sum.SevereStress++
		default:
			sum.Healthy++
		}
		if st.HasAll {
			sum.Complete++
			total += *st.Score
		}
	}
	if sum.Complete > 0 {
		avg := total / float64(sum.Complete)
		sum.Average = &avg
	}
	return sum
}

// PrintStatus writes one Status.Line per vehicle, in lexicographic ID order.
func (r *Registry) PrintStatus(w io.Writer) error {
	for _, st := range r.Statuses() {
		if _, err := fmt.Fprintln(w, st.Line()); err != nil {
			return fmt.Errorf("registry: print status: %w", err)
		}
	}
	return nil
}

// SeedIfEmpty creates the given vehicles, with no readings, only if the
// registry holds no vehicles at all. It reports whether seeding happened.
func (r *Registry) SeedIfEmpty(ids ...string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.vehicles) > 0 {
		return false
	}
	for _, id := range ids {
		nv := vehicle.New(id)
		r.vehicles[id] = &nv
	}
	return true
}

func (r *Registry) sortedIDsLocked() []string {
	ids := make([]string, 0, len(r.vehicles))
	for id := range r.vehicles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
