package metrics

import (
	"github.com/marmos91/aliasd/pkg/cache"
)

// NewCacheMetrics creates a Prometheus-backed cache.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called). When nil
// is returned, callers pass nil to cache.New, which results in zero overhead.
//
// Example usage:
//
//	metrics.InitRegistry()
//	aliases := cache.New(capacity, metrics.NewCacheMetrics())
func NewCacheMetrics() cache.Metrics {
	if !IsEnabled() || newPrometheusCacheMetrics == nil {
		return nil
	}
	return newPrometheusCacheMetrics()
}

// newPrometheusCacheMetrics is implemented in pkg/metrics/prometheus/cache.go.
// The indirection avoids an import cycle.
var newPrometheusCacheMetrics func() cache.Metrics

// RegisterCacheMetricsConstructor registers the Prometheus cache metrics constructor.
// Called by pkg/metrics/prometheus during package initialization.
func RegisterCacheMetricsConstructor(constructor func() cache.Metrics) {
	newPrometheusCacheMetrics = constructor
}
