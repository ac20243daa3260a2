package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the diversity cache. A nil *Metrics records nothing.
type Metrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	invalidations prometheus.Counter
	evictions     prometheus.Counter
	entries       prometheus.Gauge
}

// NewMetrics creates the cache collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		hits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "courses",
			Subsystem: "diversity_cache",
			Name:      "hits_total",
			Help:      "Diversity index reads served from a valid cache entry.",
		}),
		misses: f.NewCounter(prometheus.CounterOpts{
			Namespace: "courses",
			Subsystem: "diversity_cache",
			Name:      "misses_total",
			Help:      "Diversity index reads that recomputed the index.",
		}),
		invalidations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "courses",
			Subsystem: "diversity_cache",
			Name:      "invalidations_total",
			Help:      "Explicit invalidations issued by mutations or resets.",
		}),
		evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "courses",
			Subsystem: "diversity_cache",
			Name:      "sweep_evictions_total",
			Help:      "Entries dropped by the sweeper because their course no longer exists.",
		}),
		entries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "courses",
			Subsystem: "diversity_cache",
			Name:      "entries",
			Help:      "Courses currently tracked by the cache.",
		}),
	}
}

func (m *Metrics) hit() {
	if m == nil {
		return
	}
	m.hits.Inc()
}

func (m *Metrics) miss() {
	if m == nil {
		return
	}
	m.misses.Inc()
}

func (m *Metrics) invalidated(entries int) {
	if m == nil {
		return
	}
	m.invalidations.Inc()
	m.entries.Set(float64(entries))
}

func (m *Metrics) swept(removed, entries int) {
	if m == nil {
		return
	}
	m.evictions.Add(float64(removed))
	m.entries.Set(float64(entries))
}

func (m *Metrics) setEntries(entries int) {
	if m == nil {
		return
	}
	m.entries.Set(float64(entries))
}
