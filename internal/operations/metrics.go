package operations

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSucceeded = "succeeded"
	outcomeFailed    = "failed"
	outcomeDiscarded = "discarded"
)

// Metrics is nil-safe: a nil *Metrics records nothing.
type Metrics struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	queued   prometheus.Gauge
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		total: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repokit",
			Name:      "operations_total",
			Help:      "Repository operations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "repokit",
			Name:      "operation_duration_seconds",
			Help:      "Time spent running repository operations.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"kind"}),
		queued: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "repokit",
			Name:      "operations_queued",
			Help:      "Operations waiting for their repository lane.",
		}),
	}
}

func (m *Metrics) enqueued() {
	if m == nil {
		return
	}
	m.queued.Inc()
}

func (m *Metrics) dequeued() {
	if m == nil {
		return
	}
	m.queued.Dec()
}

func (m *Metrics) finished(kind Kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.total.WithLabelValues(string(kind), outcome).Inc()
	if outcome != outcomeDiscarded {
		m.duration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
	}
}
