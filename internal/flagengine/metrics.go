package flagengine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are registered on the shared registry provided by the
// observability module.
type Metrics struct {
	Resolutions     *prometheus.CounterVec
	ResolveDuration prometheus.Histogram
	CacheHits       *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flagforge",
			Subsystem: "engine",
			Name:      "resolutions_total",
			Help:      "Flag resolutions performed, by scope.",
		}, []string{"scope"}),
		ResolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flagforge",
			Subsystem: "engine",
			Name:      "resolve_duration_seconds",
			Help:      "Wall time of a single resolution, snapshot load included.",
			Buckets:   prometheus.DefBuckets,
		}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flagforge",
			Subsystem: "engine",
			Name:      "snapshot_cache_requests_total",
			Help:      "Snapshot cache lookups, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.Resolutions, m.ResolveDuration, m.CacheHits)
	return m
}
