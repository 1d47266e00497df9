package workload

import (
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garagemon/garagemon/internal/registry"
	"github.com/garagemon/garagemon/pkg/types"
)

// DefaultSeedVehicles are created when Run starts against an empty fleet.
var DefaultSeedVehicles = []string{"Car1", "Car2", "Car3"}

// Sampling ranges for generated readings.
const (
	rpmMin, rpmMax   = 600.0, 7000.0
	loadMin, loadMax = 0.0, 100.0
	tempMin, tempMax = 70.0, 130.0
)

// Mode names reported in Result.
const (
	ModeSequential = "sequential"
	ModeConcurrent = "concurrent"
)

// Fleet is the subset of the registry the generator drives.
type Fleet interface {
	Ingest(id string, kind types.SensorKind, value float64)
	Status(id string) registry.Status
	IDs() []string
	SeedIfEmpty(ids ...string) bool
}

// Options controls one Run.
type Options struct {
	// Iterations is the number of rounds each worker performs.
	Iterations int

	// Threads is the number of workers in concurrent mode. Values below 1 are
	// treated as 1. Ignored in sequential mode.
	Threads int

	// Concurrent selects the multi-worker mode.
	Concurrent bool

	// Seed feeds every worker's generator.
	Seed uint64

	// SeedVehicles are created when the fleet is empty. Nil means
	// DefaultSeedVehicles.
	SeedVehicles []string
}

// Result describes one completed Run. It carries timing and volume only;
// correctness is checked against the fleet afterwards.
type Result struct {
	Mode       string
	Workers    int
	Iterations int
	Elapsed    time.Duration
	Updates    int64
	Queries    int64
}

// ElapsedMillis returns the wall-clock duration of the run in milliseconds.
func (r Result) ElapsedMillis() int64 {
	return r.Elapsed.Milliseconds()
}

// Run drives synthetic traffic against f and returns when all work is done.
func Run(f Fleet, opts Options) Result {
	seeds := opts.SeedVehicles
	if seeds == nil {
		seeds = DefaultSeedVehicles
	}
	if f.SeedIfEmpty(seeds...) {
		slog.Debug("workload: seeded empty fleet", "vehicles", seeds)
	}

	res := Result{Mode: ModeSequential, Workers: 1, Iterations: opts.Iterations}
	if opts.Concurrent {
		res.Mode = ModeConcurrent
		res.Workers = max(1, opts.Threads)
	}

	var updates, queries atomic.Int64
	start := time.Now()

	if opts.Concurrent {
		var g errgroup.Group
		for w := 0; w < res.Workers; w++ {
			g.Go(func() error {
				u, q := newWorker(f, opts.Seed, w).run(opts.Iterations)
				updates.Add(u)
				queries.Add(q)
				return nil
			})
		}
		_ = g.Wait() // workers never fail
	} else {
		u, q := newWorker(f, opts.Seed, 0).run(opts.Iterations)
		updates.Add(u)
		queries.Add(q)
	}

	res.Elapsed = time.Since(start)
	res.Updates = updates.Load()
	res.Queries = queries.Load()

	slog.Info("workload: run complete",
		"mode", res.Mode,
		"workers", res.Workers,
		"iterations", res.Iterations,
		"elapsed_ms", res.ElapsedMillis(),
		"updates", res.Updates,
	)
	return res
}

// worker is one thread of control with its own generator.
type worker struct {
	fleet Fleet
	rng   *rand.Rand
}

func newWorker(f Fleet, seed uint64, index int) *worker {
	return &worker{
		fleet: f,
		rng:   rand.New(rand.NewPCG(seed, uint64(index))),
	}
}

func (w *worker) run(iterations int) (updates, queries int64) {
	for i := 0; i < iterations; i++ {
		// Re-read every round so vehicles added concurrently are picked up.
		for _, id := range w.fleet.IDs() {
			w.fleet.Ingest(id, types.RPM, w.uniform(rpmMin, rpmMax))
			w.fleet.Ingest(id, types.EngineLoad, w.uniform(loadMin, loadMax))
			w.fleet.Ingest(id, types.CoolantTemp, w.uniform(tempMin, tempMax))
			_ = w.fleet.Status(id)
			updates += 3
			queries++
		}
	}
	return updates, queries
}

func (w *worker) uniform(lo, hi float64) float64 {
	return lo + w.rng.Float64()*(hi-lo)
}
