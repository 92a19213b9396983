// Package models defines Core-Web-Vitals-style performance samples, their
// rating thresholds and the aggregated report shapes.
package models

import "time"

// Metric names a tracked web-vitals measurement. Unknown metrics are still
// recorded but always classify as poor.
type Metric string

const (
	MetricLCP  Metric = "LCP"
	MetricFID  Metric = "FID"
	MetricINP  Metric = "INP"
	MetricCLS  Metric = "CLS"
	MetricFCP  Metric = "FCP"
	MetricTTFB Metric = "TTFB"
)

// AllMetrics lists the known metrics in canonical report order.
var AllMetrics = []Metric{
	MetricLCP,
	MetricFID,
	MetricINP,
	MetricCLS,
	MetricFCP,
	MetricTTFB,
}

// Rating classifies a sample against its metric's threshold pair.
type Rating string

const (
	RatingGood             Rating = "good"
	RatingNeedsImprovement Rating = "needs_improvement"
	RatingPoor             Rating = "poor"
)

// Threshold holds the upper bounds for the good and needs-improvement
// buckets. Values are milliseconds except CLS, which is unitless.
type Threshold struct {
	Good             float64
	NeedsImprovement float64
}

// Thresholds is the fixed per-metric rating table.
var Thresholds = map[Metric]Threshold{
	MetricLCP:  {Good: 2500, NeedsImprovement: 4000},
	MetricFID:  {Good: 100, NeedsImprovement: 300},
	MetricINP:  {Good: 200, NeedsImprovement: 500},
	MetricCLS:  {Good: 0.10, NeedsImprovement: 0.25},
	MetricFCP:  {Good: 1800, NeedsImprovement: 3000},
	MetricTTFB: {Good: 800, NeedsImprovement: 1800},
}

// Classify rates a value against its metric's thresholds. Boundary values
// take the better bucket. Unknown metrics rate poor, never silently good.
func Classify(metric Metric, value float64) Rating {
	t, ok := Thresholds[metric]
	if !ok {
		return RatingPoor
	}
	switch {
	case value <= t.Good:
		return RatingGood
	case value <= t.NeedsImprovement:
		return RatingNeedsImprovement
	default:
		return RatingPoor
	}
}

// Sample is one recorded measurement.
type Sample struct {
	Metric       Metric    `json:"metric"`
	Value        float64   `json:"value"`
	Path         string    `json:"path,omitempty"`
	DeviceType   string    `json:"deviceType,omitempty"`
	ConsentLevel string    `json:"consentLevel,omitempty"`
	At           time.Time `json:"at"`
}

// Distribution holds per-bucket sample percentages. The three fields sum to
// 100 for any non-empty sample set, modulo float rounding.
type Distribution struct {
	Good             float64 `json:"good"`
	NeedsImprovement float64 `json:"needsImprovement"`
	Poor             float64 `json:"poor"`
}

// MetricReport aggregates one metric's samples over the report window.
type MetricReport struct {
	Metric       Metric       `json:"metric"`
	Count        int          `json:"count"`
	Average      float64      `json:"average"`
	Median       float64      `json:"median"`
	P95          float64      `json:"p95"`
	Distribution Distribution `json:"distribution"`
	Rating       Rating       `json:"rating"`
}

// Severity orders insights and recommendations in report output.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank maps severity to a sortable weight, higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Insight is a generated, human-readable observation about one metric.
type Insight struct {
	Severity Severity `json:"severity"`
	Metric   Metric   `json:"metric"`
	Message  string   `json:"message"`
}

// Recommendation suggests a remediation for an out-of-budget metric.
type Recommendation struct {
	Severity Severity `json:"severity"`
	Metric   Metric   `json:"metric"`
	Message  string   `json:"message"`
}

// Report is the full aggregation output for the report window.
type Report struct {
	GeneratedAt     time.Time        `json:"generatedAt"`
	WindowStart     time.Time        `json:"windowStart"`
	TotalSamples    int              `json:"totalSamples"`
	Metrics         []MetricReport   `json:"metrics"`
	Insights        []Insight        `json:"insights"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Output caps keep reports bounded regardless of how noisy the window is.
const (
	MaxInsights        = 10
	MaxRecommendations = 5
)
