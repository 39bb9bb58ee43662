package metrics

import (
	"github.com/marmos91/aliasd/pkg/actor"
)

// NewActorMetrics creates a Prometheus-backed actor.Metrics, or nil when
// metrics are disabled.
func NewActorMetrics() actor.Metrics {
	if !IsEnabled() || newPrometheusActorMetrics == nil {
		return nil
	}
	return newPrometheusActorMetrics()
}

var newPrometheusActorMetrics func() actor.Metrics

// RegisterActorMetricsConstructor registers the Prometheus actor metrics constructor.
func RegisterActorMetricsConstructor(constructor func() actor.Metrics) {
	newPrometheusActorMetrics = constructor
}
