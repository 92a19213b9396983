// Package service aggregates performance samples into rated, percentile-based
// reports with deterministic insights and recommendations.
package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"beacon/internal/performance/metrics"
	"beacon/internal/performance/models"
	"beacon/internal/performance/store"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/requestcontext"
)

// defaultWindow is how far back a report looks.
const defaultWindow = 24 * time.Hour

// recommendations is the fixed remediation rule set, keyed by metric. A
// metric earns its entry when its median lands outside the good budget.
var recommendations = map[models.Metric]string{
	models.MetricLCP:  "Compress hero images, preload the largest element and lazy-load offscreen media",
	models.MetricFID:  "Split long tasks and defer non-critical JavaScript until after first input",
	models.MetricINP:  "Debounce expensive handlers and avoid synchronous layout work in listeners",
	models.MetricCLS:  "Reserve space for images, embeds and late-loading fonts to stop layout shifts",
	models.MetricFCP:  "Inline critical CSS and preconnect to required origins to speed up first paint",
	models.MetricTTFB: "Cache rendered pages and reduce upstream latency to lower server response time",
}

// Service records samples and produces aggregate reports.
type Service struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	window  time.Duration
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics enables Prometheus metrics collection.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithWindow overrides the report lookback window.
func WithWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
	}
}

// New creates a performance aggregation service.
func New(st store.Store, logger *slog.Logger, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "store is required")
	}
	s := &Service{
		store:  st,
		logger: logger,
		window: defaultWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RecordSample stores one measurement. Metric names are normalized to upper
// case; unknown metrics are kept and will rate poor in reports.
func (s *Service) RecordSample(ctx context.Context, sample models.Sample) error {
	sample.Metric = models.Metric(strings.ToUpper(strings.TrimSpace(string(sample.Metric))))
	if sample.Metric == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "metric name is required")
	}
	if sample.Value < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "metric value must be non-negative")
	}

	if err := s.store.Add(ctx, sample); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "storing performance sample")
	}
	if s.metrics != nil {
		s.metrics.ObserveSample(string(sample.Metric),
			string(models.Classify(sample.Metric, sample.Value)), sample.Value)
	}
	return nil
}

// Report aggregates the sample window into per-metric statistics, insights
// and recommendations. A non-positive window falls back to the configured
// default. Output ordering is deterministic.
func (s *Service) Report(ctx context.Context, window time.Duration) (*models.Report, error) {
	if window <= 0 {
		window = s.window
	}
	now := requestcontext.Now(ctx)
	cutoff := now.Add(-window)

	samples, err := s.store.Since(ctx, cutoff)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading performance samples")
	}

	grouped := make(map[models.Metric][]float64)
	for _, sample := range samples {
		grouped[sample.Metric] = append(grouped[sample.Metric], sample.Value)
	}

	report := &models.Report{
		GeneratedAt:  now,
		WindowStart:  cutoff,
		TotalSamples: len(samples),
	}
	for _, metric := range reportMetrics(grouped) {
		mr := aggregate(metric, grouped[metric])
		report.Metrics = append(report.Metrics, mr)
		report.Insights = append(report.Insights, insightsFor(mr)...)
		if rec, ok := recommendationFor(mr); ok {
			report.Recommendations = append(report.Recommendations, rec)
		}
	}

	sortBySeverity(report)
	if len(report.Insights) > models.MaxInsights {
		report.Insights = report.Insights[:models.MaxInsights]
	}
	if len(report.Recommendations) > models.MaxRecommendations {
		report.Recommendations = report.Recommendations[:models.MaxRecommendations]
	}

	if s.metrics != nil {
		s.metrics.IncrementReportsGenerated()
	}
	s.logger.Debug("performance report generated",
		"samples", report.TotalSamples,
		"insights", len(report.Insights),
	)
	return report, nil
}

// reportMetrics returns the known metrics in canonical order, followed by any
// unknown metrics seen in the window, alphabetically.
func reportMetrics(grouped map[models.Metric][]float64) []models.Metric {
	known := make(map[models.Metric]bool, len(models.AllMetrics))
	out := make([]models.Metric, 0, len(grouped)+len(models.AllMetrics))
	for _, m := range models.AllMetrics {
		known[m] = true
		out = append(out, m)
	}

	var extras []models.Metric
	for m := range grouped {
		if !known[m] {
			extras = append(extras, m)
		}
	}
	sort.Slice(extras, func(i, j int) bool { return extras[i] < extras[j] })
	return append(out, extras...)
}

func aggregate(metric models.Metric, values []float64) models.MetricReport {
	mr := models.MetricReport{Metric: metric, Count: len(values)}
	if len(values) == 0 {
		return mr
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mr.Average = sum / float64(len(sorted))
	mr.Median = sorted[len(sorted)/2]

	p95Index := int(float64(len(sorted)) * 0.95)
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}
	mr.P95 = sorted[p95Index]

	// The distribution comes from classifying each sample, never from
	// re-rating the average.
	var good, ni, poor int
	for _, v := range sorted {
		switch models.Classify(metric, v) {
		case models.RatingGood:
			good++
		case models.RatingNeedsImprovement:
			ni++
		default:
			poor++
		}
	}
	total := float64(len(sorted))
	mr.Distribution = models.Distribution{
		Good:             100 * float64(good) / total,
		NeedsImprovement: 100 * float64(ni) / total,
		Poor:             100 * float64(poor) / total,
	}
	mr.Rating = models.Classify(metric, mr.Median)
	return mr
}

func insightsFor(mr models.MetricReport) []models.Insight {
	if mr.Count == 0 {
		return []models.Insight{{
			Severity: models.SeverityLow,
			Metric:   mr.Metric,
			Message:  "no samples collected for " + string(mr.Metric) + " in this window",
		}}
	}

	var out []models.Insight
	if mr.Count >= 5 && mr.Distribution.Poor > 50 {
		out = append(out, models.Insight{
			Severity: models.SeverityHigh,
			Metric:   mr.Metric,
			Message:  "more than half of " + string(mr.Metric) + " samples rate poor",
		})
	}
	if mr.Distribution.NeedsImprovement > 60 {
		out = append(out, models.Insight{
			Severity: models.SeverityMedium,
			Metric:   mr.Metric,
			Message:  "most " + string(mr.Metric) + " samples need improvement",
		})
	}
	return out
}

func recommendationFor(mr models.MetricReport) (models.Recommendation, bool) {
	message, ok := recommendations[mr.Metric]
	if !ok || mr.Count == 0 || mr.Rating == models.RatingGood {
		return models.Recommendation{}, false
	}
	severity := models.SeverityMedium
	if mr.Rating == models.RatingPoor {
		severity = models.SeverityHigh
	}
	return models.Recommendation{Severity: severity, Metric: mr.Metric, Message: message}, true
}

func sortBySeverity(report *models.Report) {
	sort.SliceStable(report.Insights, func(i, j int) bool {
		a, b := report.Insights[i], report.Insights[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		return a.Metric < b.Metric
	})
	sort.SliceStable(report.Recommendations, func(i, j int) bool {
		a, b := report.Recommendations[i], report.Recommendations[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		return a.Metric < b.Metric
	})
}
