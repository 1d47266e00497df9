package metrics

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/garagemon/garagemon/internal/ingest"
	"github.com/garagemon/garagemon/internal/registry"
	"github.com/garagemon/garagemon/internal/workload"
	"github.com/garagemon/garagemon/pkg/types"
)

const namespace = "garagemon"

// Source is the read side of the vehicle registry the fleet collector needs.
type Source interface {
	Snapshot() []registry.Entry
}

// Metrics holds the collectors for one process.
type Metrics struct {
	reg *prometheus.Registry

	diagnostics  *prometheus.CounterVec
	ingestErrors *prometheus.CounterVec
	workload     *prometheus.HistogramVec
}

// New creates a Metrics with its own registry, including the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diagnostics_ingested_total",
				Help:      "Diagnostics accepted by the registry, by sensor kind.",
			},
			[]string{"sensor"},
		),
		ingestErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingest_errors_total",
				Help:      "Rejected bulk-load lines, by reason.",
			},
			[]string{"reason"},
		),
		workload: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "workload_duration_seconds",
				Help:      "Wall-clock duration of workload generator runs.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"mode"},
		),
	}
	m.reg.MustRegister(
		m.diagnostics,
		m.ingestErrors,
		m.workload,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RegisterFleet adds the scrape-time fleet collector reading from src.
func (m *Metrics) RegisterFleet(src Source) error {
	if err := m.reg.Register(newFleetCollector(src)); err != nil {
		return fmt.Errorf("metrics: register fleet collector: %w", err)
	}
	return nil
}

// Observe counts one accepted diagnostic. Its signature matches
// registry.Observer.
func (m *Metrics) Observe(d types.Diagnostic, _ registry.Entry) {
	m.diagnostics.WithLabelValues(d.Kind.String()).Inc()
}

// RecordLoad counts the rejected lines of a bulk load.
func (m *Metrics) RecordLoad(res ingest.Result) {
	for _, e := range res.Errors {
		m.ingestErrors.WithLabelValues(string(e.Reason)).Inc()
	}
}

// ObserveWorkload records the duration of one workload run.
func (m *Metrics) ObserveWorkload(res workload.Result) {
	m.workload.WithLabelValues(res.Mode).Observe(res.Elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Gather returns the current metric families.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	mfs, err := m.reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("metrics: gather: %w", err)
	}
	return mfs, nil
}

// WriteText writes every metric family whose name starts with the garagemon
// namespace to w in the text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	mfs, err := m.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if !ownFamily(mf) {
			continue
		}
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func ownFamily(mf *dto.MetricFamily) bool {
	return strings.HasPrefix(mf.GetName(), namespace+"_")
}
