// Package tracer provides a lightweight tracing abstraction for the event
// pipeline. It defines an internal tracer interface that does not depend
// directly on OpenTelemetry APIs, so services can emit distributed traces
// while remaining decoupled from a specific tracing backend.
//
// Implementations:
//   - NoopTracer: for tests (zero overhead)
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording any error that occurred.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span with the given name and attributes. The
	// returned context carries the span and should be passed to child
	// operations. The span must be ended via Span.End().
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Float64 creates a float64 attribute.
func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names used by the event pipeline.
const (
	SpanProcessEvent = "events.process"
	SpanProcessBatch = "events.process_batch"
	SpanConsentGate  = "events.consent_gate"
	SpanDispatch     = "events.dispatch"
)

// Attribute keys used by the event pipeline.
const (
	AttrCategory     = "event.category"
	AttrConsentLevel = "event.consent_level"
	AttrAnonymized   = "event.anonymized"
	AttrBatchSize    = "batch.size"
	AttrProcessed    = "batch.processed"
	AttrFailed       = "batch.failed"
)

// Event names used by the event pipeline.
const (
	EventGateDenied       = "gate.denied"
	EventValidationFailed = "validation.failed"
)
