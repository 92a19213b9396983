package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for rate limiting.
type Metrics struct {
	ChecksAllowed  *prometheus.CounterVec
	ChecksRejected *prometheus.CounterVec
	CheckErrors    prometheus.Counter
}

// New registers and returns rate limit metrics collectors.
func New() *Metrics {
	return &Metrics{
		ChecksAllowed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_ratelimit_allowed_total",
			Help: "Total number of requests allowed by the rate limiter, labeled by class",
		}, []string{"class"}),
		ChecksRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_ratelimit_rejected_total",
			Help: "Total number of requests rejected by the rate limiter, labeled by class",
		}, []string{"class"}),
		CheckErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "beacon_ratelimit_errors_total",
			Help: "Total number of rate limit checks that failed open",
		}),
	}
}

// IncrementAllowed increments the allowed counter with class label.
func (m *Metrics) IncrementAllowed(class string) {
	m.ChecksAllowed.WithLabelValues(class).Inc()
}

// IncrementRejected increments the rejected counter with class label.
func (m *Metrics) IncrementRejected(class string) {
	m.ChecksRejected.WithLabelValues(class).Inc()
}

// IncrementErrors increments the fail-open counter by 1.
func (m *Metrics) IncrementErrors() {
	m.CheckErrors.Inc()
}
