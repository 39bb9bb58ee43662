package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/aliasd/pkg/cache"
	"github.com/marmos91/aliasd/pkg/metrics"
)

func init() {
	metrics.RegisterCacheMetricsConstructor(NewCacheMetrics)
}

// cacheMetrics is the Prometheus implementation of cache.Metrics.
type cacheMetrics struct {
	lookups       *prometheus.CounterVec
	evictions     prometheus.Counter
	invalidations prometheus.Counter
	fills         *prometheus.CounterVec
	entries       prometheus.Gauge
}

// NewCacheMetrics creates a new Prometheus-backed cache.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewCacheMetrics() cache.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &cacheMetrics{
		lookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "aliasd_cache_lookups_total",
				Help: "Alias cache lookups by result",
			},
			[]string{"result"}, // "hit", "miss"
		),
		evictions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "aliasd_cache_evictions_total",
				Help: "Entries evicted to stay within capacity",
			},
		),
		invalidations: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "aliasd_cache_invalidations_total",
				Help: "Invalidations issued after committed writes",
			},
		),
		fills: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "aliasd_cache_fills_total",
				Help: "Cache fills after a miss by result",
			},
			[]string{"result"}, // "stored", "skipped"
		),
		entries: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "aliasd_cache_entries",
				Help: "Current number of cached aliases",
			},
		),
	}
}

func (m *cacheMetrics) RecordLookup(hit bool) {
	if hit {
		m.lookups.WithLabelValues("hit").Inc()
	} else {
		m.lookups.WithLabelValues("miss").Inc()
	}
}

func (m *cacheMetrics) RecordEviction() {
	m.evictions.Inc()
}

func (m *cacheMetrics) RecordInvalidation() {
	m.invalidations.Inc()
}

func (m *cacheMetrics) RecordFill(stored bool) {
	if stored {
		m.fills.WithLabelValues("stored").Inc()
	} else {
		m.fills.WithLabelValues("skipped").Inc()
	}
}

func (m *cacheMetrics) SetEntries(n int) {
	m.entries.Set(float64(n))
}
