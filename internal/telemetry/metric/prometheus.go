package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every snapback metric.
const Namespace = "snapback"

// Rollback results recorded by RecordRollback.
const (
	RollbackRestored  = "restored"
	RollbackNoop      = "noop"
	RollbackMalformed = "malformed"
	RollbackError     = "error"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Protocol metrics
	Mutations         *prometheus.CounterVec
	SnapshotsCaptured *prometheus.CounterVec
	Rollbacks         *prometheus.CounterVec

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RateLimited     prometheus.Counter
}

var (
	globalRegistry *Registry
	globalOnce     sync.Once
)

// Global returns the process-wide registry, creating it on first use.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler returns the /metrics handler of the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// NewRegistry creates a registry with Go runtime and process collectors
// plus all snapback metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "mutations_total",
			Help:      "Entity mutations applied, by kind and operation",
		}, []string{"kind", "op"}),
		SnapshotsCaptured: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "snapshots_captured_total",
			Help:      "Snapshots captured before a mutation, by kind",
		}, []string{"kind"}),
		Rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rollbacks_total",
			Help:      "Rollback requests, by kind and result",
		}, []string{"kind", "result"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "HTTP requests served",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"method", "route"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}

	reg.MustRegister(
		r.Mutations,
		r.SnapshotsCaptured,
		r.Rollbacks,
		r.RequestsTotal,
		r.RequestDuration,
		r.RateLimited,
	)

	return r
}

// Registerer exposes the underlying registry so storage engines can add
// their own collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Handler returns an HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		Registry: r.registry,
	})
}

// RecordMutation counts an applied create or update.
func (r *Registry) RecordMutation(kind, op string) {
	r.Mutations.WithLabelValues(kind, op).Inc()
}

// IncSnapshotCaptured counts a snapshot written before a mutation.
func (r *Registry) IncSnapshotCaptured(kind string) {
	r.SnapshotsCaptured.WithLabelValues(kind).Inc()
}

// RecordRollback counts a rollback by result.
func (r *Registry) RecordRollback(kind, result string) {
	r.Rollbacks.WithLabelValues(kind, result).Inc()
}

// RecordRequest counts a served HTTP request.
func (r *Registry) RecordRequest(method, route, status string) {
	r.RequestsTotal.WithLabelValues(method, route, status).Inc()
}

// ObserveRequestDuration records request latency in seconds.
func (r *Registry) ObserveRequestDuration(method, route string, seconds float64) {
	r.RequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// IncRateLimited counts a rejected request.
func (r *Registry) IncRateLimited() {
	r.RateLimited.Inc()
}
