package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for performance aggregation.
type Metrics struct {
	SamplesRecorded  *prometheus.CounterVec
	ReportsGenerated prometheus.Counter
	SampleValues     *prometheus.HistogramVec
}

// New registers and returns performance metrics collectors.
func New() *Metrics {
	return &Metrics{
		SamplesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_performance_samples_total",
			Help: "Total number of recorded performance samples, labeled by metric and rating",
		}, []string{"metric", "rating"}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "beacon_performance_reports_total",
			Help: "Total number of generated performance reports",
		}),
		SampleValues: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "beacon_performance_sample_value",
			Help:    "Observed sample values, labeled by metric",
			Buckets: []float64{50, 100, 200, 500, 1000, 2500, 4000, 8000},
		}, []string{"metric"}),
	}
}

// ObserveSample records one sample's value and rating.
func (m *Metrics) ObserveSample(metric, rating string, value float64) {
	m.SamplesRecorded.WithLabelValues(metric, rating).Inc()
	m.SampleValues.WithLabelValues(metric).Observe(value)
}

// IncrementReportsGenerated increments the report counter by 1.
func (m *Metrics) IncrementReportsGenerated() {
	m.ReportsGenerated.Inc()
}
