package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the event pipeline.
type Metrics struct {
	EventsProcessed  *prometheus.CounterVec
	EventsRejected   *prometheus.CounterVec
	BatchesProcessed *prometheus.CounterVec
	BatchSize        prometheus.Histogram
	PipelineDuration prometheus.Histogram
}

// New registers and returns event pipeline metrics collectors.
func New() *Metrics {
	return &Metrics{
		EventsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_events_processed_total",
			Help: "Total number of events accepted through the pipeline, labeled by category",
		}, []string{"category"}),
		EventsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_events_rejected_total",
			Help: "Total number of events rejected by the pipeline, labeled by reason",
		}, []string{"reason"}),
		BatchesProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_event_batches_total",
			Help: "Total number of processed batches, labeled by outcome status",
		}, []string{"status"}),
		BatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "beacon_event_batch_size",
			Help:    "Number of events per submitted batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100},
		}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "beacon_event_pipeline_duration_seconds",
			Help:    "Time spent processing a single event through the pipeline",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncrementEventsProcessed increments the accepted counter with category label.
func (m *Metrics) IncrementEventsProcessed(category string) {
	m.EventsProcessed.WithLabelValues(category).Inc()
}

// IncrementEventsRejected increments the rejected counter with reason label.
func (m *Metrics) IncrementEventsRejected(reason string) {
	m.EventsRejected.WithLabelValues(reason).Inc()
}

// IncrementBatchesProcessed increments the batch counter with status label.
func (m *Metrics) IncrementBatchesProcessed(status string) {
	m.BatchesProcessed.WithLabelValues(status).Inc()
}

// ObserveBatchSize records the size of a submitted batch.
func (m *Metrics) ObserveBatchSize(size int) {
	m.BatchSize.Observe(float64(size))
}

// ObservePipelineDuration records the processing time of one event.
func (m *Metrics) ObservePipelineDuration(seconds float64) {
	m.PipelineDuration.Observe(seconds)
}
