package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the audits module.
type Metrics struct {
	AuditsCreated    prometheus.Counter
	FindingsRecorded *prometheus.CounterVec
	DecisionsIssued  *prometheus.CounterVec
}

// New creates a Metrics instance with all audits module metrics registered.
func New() *Metrics {
	return &Metrics{
		AuditsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_audits_created_total",
			Help: "Total number of audits created",
		}),
		FindingsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_findings_recorded_total",
			Help: "Total number of findings recorded, by type and severity",
		}, []string{"type", "severity"}),
		DecisionsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_decisions_issued_total",
			Help: "Total number of certification decisions issued, by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementAuditsCreated records a successful audit creation.
func (m *Metrics) IncrementAuditsCreated() {
	m.AuditsCreated.Inc()
}

// IncrementFindingsRecorded records a new finding.
func (m *Metrics) IncrementFindingsRecorded(ftype, severity string) {
	m.FindingsRecorded.WithLabelValues(ftype, severity).Inc()
}

// IncrementDecisionsIssued records an issued decision.
func (m *Metrics) IncrementDecisionsIssued(outcome string) {
	m.DecisionsIssued.WithLabelValues(outcome).Inc()
}
