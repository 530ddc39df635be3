// Package metric provides Prometheus metrics for snapback.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry, typed recorders and HTTP handler
//   - collector.go: Store collector reporting entity and pending snapshot counts
//
// Metrics include:
//
//   - Snapshot capture and rollback outcome counters
//   - Request count and latency histograms
//   - Store size gauges
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
