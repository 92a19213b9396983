package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for consent operations.
type Metrics struct {
	ConsentsCreated   prometheus.Counter
	ConsentsUpdated   *prometheus.CounterVec
	ConsentsWithdrawn prometheus.Counter
	ListenerFailures  prometheus.Counter
}

// New registers and returns consent metrics collectors.
func New() *Metrics {
	return &Metrics{
		ConsentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "beacon_consents_created_total",
			Help: "Total number of first-contact consent records created",
		}),
		ConsentsUpdated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_consents_updated_total",
			Help: "Total number of consent updates, labeled by level and method",
		}, []string{"level", "method"}),
		ConsentsWithdrawn: promauto.NewCounter(prometheus.CounterOpts{
			Name: "beacon_consents_withdrawn_total",
			Help: "Total number of consent withdrawals",
		}),
		ListenerFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "beacon_consent_listener_failures_total",
			Help: "Total number of consent change listeners that panicked",
		}),
	}
}

// IncrementConsentsCreated increments the first-contact counter by 1.
func (m *Metrics) IncrementConsentsCreated() {
	m.ConsentsCreated.Inc()
}

// IncrementConsentsUpdated increments the update counter with level and method labels.
func (m *Metrics) IncrementConsentsUpdated(level, method string) {
	m.ConsentsUpdated.WithLabelValues(level, method).Inc()
}

// IncrementConsentsWithdrawn increments the withdrawal counter by 1.
func (m *Metrics) IncrementConsentsWithdrawn() {
	m.ConsentsWithdrawn.Inc()
}

// IncrementListenerFailures increments the listener panic counter by 1.
func (m *Metrics) IncrementListenerFailures() {
	m.ListenerFailures.Inc()
}
