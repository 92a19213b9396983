// Package sink delivers accepted events to upstream providers. Delivery is
// best-effort: every failure is logged and swallowed so a slow or broken
// provider can never change an accept/reject decision already made.
package sink

import "context"

// AnalyticsSink ingests named events with flattened parameters (GA4-style).
type AnalyticsSink interface {
	Send(ctx context.Context, eventName string, params map[string]any) error
}

// ErrorSink captures error reports with tags and extra context.
type ErrorSink interface {
	Capture(ctx context.Context, message string, tags map[string]string, extra map[string]any) error
}
