// Package metrics holds the prometheus instrumentation for the allocation
// engine. Collectors are created against a caller-supplied registerer so the
// embedding process decides how (or whether) to expose them.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the engine's collectors.
type Metrics struct {
	Checkouts       prometheus.Counter
	Checkins        prometheus.Counter
	Conflicts       prometheus.Counter
	StockRejections prometheus.Counter
	Releases        prometheus.Counter
	TxDuration      prometheus.Histogram
}

// New creates the collector set and registers it with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Checkouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "depot",
			Name:      "checkouts_total",
			Help:      "Equipment assignments to projects.",
		}),
		Checkins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "depot",
			Name:      "checkins_total",
			Help:      "Equipment returns to the warehouse.",
		}),
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "depot",
			Name:      "allocation_conflicts_total",
			Help:      "Assignments rejected because the item was held elsewhere.",
		}),
		StockRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "depot",
			Name:      "stock_rejections_total",
			Help:      "Bulk assignments rejected for insufficient stock.",
		}),
		Releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "depot",
			Name:      "project_releases_total",
			Help:      "Equipment records released by project completion or cancellation.",
		}),
		TxDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "depot",
			Name:      "tx_duration_seconds",
			Help:      "Duration of allocation transactions.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Checkouts, m.Checkins, m.Conflicts, m.StockRejections, m.Releases, m.TxDuration)
	}
	return m
}

// NewNop creates an unregistered collector set for tests and embedders that
// don't scrape.
func NewNop() *Metrics { return New(nil) }
