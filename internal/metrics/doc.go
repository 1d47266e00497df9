// Package metrics exposes fleet state and ingestion activity as Prometheus
// metrics.
//
// Fleet gauges are computed from a registry snapshot at scrape time, so they
// never drift from the registry. Ingestion counters and the workload
// histogram are updated as events happen. Every Metrics value owns its own
// prometheus.Registry; nothing is registered globally.
package metrics
