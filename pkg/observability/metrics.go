package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Restore sources reported by RestoreCompleted.
const (
	SourceTab    = "tab"
	SourceShared = "shared"
	SourceLegacy = "legacy"
	SourceNone   = "none"
)

// Metrics groups the store's collectors.
type Metrics struct {
	StorageFailures  *prometheus.CounterVec
	SignalsPublished *prometheus.CounterVec
	SignalsReceived  *prometheus.CounterVec
	Restores         *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg skips registration (useful in tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StorageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unimarket_session_storage_failures_total",
				Help: "Storage operations that failed and were degraded to no-ops",
			},
			[]string{"tier", "op"},
		),
		SignalsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unimarket_session_signals_published_total",
				Help: "Cross-context signals published",
			},
			[]string{"kind"},
		),
		SignalsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unimarket_session_signals_received_total",
				Help: "Cross-context signals received from sibling contexts",
			},
			[]string{"kind"},
		),
		Restores: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unimarket_session_restores_total",
				Help: "Session restores by the source that produced the identity",
			},
			[]string{"source"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.StorageFailures, m.SignalsPublished, m.SignalsReceived, m.Restores)
	}
	return m
}

// StorageFailed records a swallowed storage error.
func (m *Metrics) StorageFailed(tier, op string) {
	if m == nil {
		return
	}
	m.StorageFailures.WithLabelValues(tier, op).Inc()
}

// SignalPublished records an outgoing signal.
func (m *Metrics) SignalPublished(kind string) {
	if m == nil {
		return
	}
	m.SignalsPublished.WithLabelValues(kind).Inc()
}

// SignalReceived records an incoming signal.
func (m *Metrics) SignalReceived(kind string) {
	if m == nil {
		return
	}
	m.SignalsReceived.WithLabelValues(kind).Inc()
}

// RestoreCompleted records where Initialize found the session.
func (m *Metrics) RestoreCompleted(source string) {
	if m == nil {
		return
	}
	m.Restores.WithLabelValues(source).Inc()
}
