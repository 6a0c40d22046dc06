package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the workflow machine.
type Metrics struct {
	TransitionsTotal   *prometheus.CounterVec
	TransitionDuration prometheus.Histogram
}

// New creates a Metrics instance with all workflow metrics registered.
func New() *Metrics {
	return &Metrics{
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_workflow_transitions_total",
			Help: "Transition attempts by source status, target status, and outcome",
		}, []string{"from", "to", "outcome"}),
		TransitionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "attest_workflow_transition_duration_seconds",
			Help:    "Duration of transition attempts including persistence and event emission",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveTransition records one transition attempt.
func (m *Metrics) ObserveTransition(from, to, outcome string, start time.Time) {
	m.TransitionsTotal.WithLabelValues(from, to, outcome).Inc()
	m.TransitionDuration.Observe(time.Since(start).Seconds())
}
