package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/aliasd/pkg/actor"
	"github.com/marmos91/aliasd/pkg/metrics"
)

func init() {
	metrics.RegisterActorMetricsConstructor(NewActorMetrics)
}

// actorMetrics is the Prometheus implementation of actor.Metrics.
type actorMetrics struct {
	commands   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	queueDepth prometheus.Gauge
	rejected   *prometheus.CounterVec
}

// NewActorMetrics creates a new Prometheus-backed actor.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewActorMetrics() actor.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &actorMetrics{
		commands: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "aliasd_actor_commands_total",
				Help: "Commands executed by the connection actor by op and outcome",
			},
			[]string{"op", "outcome"}, // outcome: "ok", "not_found", "error"
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "aliasd_actor_command_duration_milliseconds",
				Help: "Time spent executing a command on the storage connection",
				Buckets: []float64{
					0.05, // 50us - in-memory lookups
					0.1,
					0.5,
					1,
					5,
					10,
					50,
					100,
					500, // slow fsync or network round trip
					1000,
				},
			},
			[]string{"op"},
		),
		queueDepth: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "aliasd_actor_queue_depth",
				Help: "Commands waiting for the connection actor",
			},
		),
		rejected: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "aliasd_actor_rejected_total",
				Help: "Commands refused because the queue was full",
			},
			[]string{"op"},
		),
	}
}

func (m *actorMetrics) ObserveCommand(op, outcome string, d time.Duration) {
	m.commands.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(float64(d.Microseconds()) / 1000.0)
}

func (m *actorMetrics) SetQueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

func (m *actorMetrics) RecordRejected(op string) {
	m.rejected.WithLabelValues(op).Inc()
}
