package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreStats is a point-in-time view of store sizes.
type StoreStats struct {
	Entities         int
	PendingSnapshots int
}

// StatsFunc reads current store sizes.
type StatsFunc func(ctx context.Context) (StoreStats, error)

// Collector reports store sizes at scrape time.
type Collector struct {
	stats    StatsFunc
	timeout  time.Duration
	entities *prometheus.Desc
	pending  *prometheus.Desc
}

// NewCollector creates a collector backed by stats.
func NewCollector(stats StatsFunc) *Collector {
	return &Collector{
		stats:   stats,
		timeout: 5 * time.Second,
		entities: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "store", "entities"),
			"Entities currently stored",
			nil, nil,
		),
		pending: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "store", "pending_snapshots"),
			"Snapshots available for rollback",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entities
	ch <- c.pending
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	stats, err := c.stats(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.entities, err)
		ch <- prometheus.NewInvalidMetric(c.pending, err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.entities, prometheus.GaugeValue, float64(stats.Entities))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(stats.PendingSnapshots))
}

// MustRegister registers additional collectors on the registry.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}
