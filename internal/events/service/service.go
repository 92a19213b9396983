// Package service orchestrates the event pipeline: consent gating, contextual
// defaulting, validation, sanitization and best-effort sink dispatch.
package service

import (
	"context"
	"log/slog"
	"time"

	"beacon/internal/consent/gate"
	consent "beacon/internal/consent/models"
	"beacon/internal/events/metrics"
	"beacon/internal/events/models"
	"beacon/internal/events/sanitizer"
	"beacon/internal/events/validator"
	perfmodels "beacon/internal/performance/models"
	"beacon/internal/platform/tracer"
	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/requestcontext"
)

// ConsentSource resolves the authoritative consent record for a session.
// When a record exists it overrides whatever level the submission claims.
type ConsentSource interface {
	Current(ctx context.Context, sessionID id.SessionID) (*consent.Record, error)
}

// Dispatcher hands accepted events to the provider sinks.
type Dispatcher interface {
	Dispatch(event *models.AnalyticsEvent)
}

// PerformanceRecorder receives performance-category samples for aggregation.
type PerformanceRecorder interface {
	RecordSample(ctx context.Context, sample perfmodels.Sample) error
}

// Service runs submissions through the pipeline. Denied and invalid events
// are dropped before any sink sees them.
type Service struct {
	dispatcher Dispatcher
	consents   ConsentSource
	perf       PerformanceRecorder
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     tracer.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithConsentSource wires the consent store so stored records override
// client-declared levels.
func WithConsentSource(cs ConsentSource) Option {
	return func(s *Service) {
		s.consents = cs
	}
}

// WithPerformanceRecorder forwards performance events to the aggregator.
func WithPerformanceRecorder(pr PerformanceRecorder) Option {
	return func(s *Service) {
		s.perf = pr
	}
}

// WithMetrics enables Prometheus metrics collection.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer enables distributed tracing of the pipeline.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New creates an event pipeline service.
func New(dispatcher Dispatcher, logger *slog.Logger, opts ...Option) (*Service, error) {
	if dispatcher == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "dispatcher is required")
	}
	s := &Service{
		dispatcher: dispatcher,
		logger:     logger,
		tracer:     tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ProcessEvent runs one submission through the full pipeline. The returned
// event is the sanitized form that was dispatched; on rejection the error
// carries the domain code the transport layer maps to a status.
func (s *Service) ProcessEvent(ctx context.Context, sub *models.Submission, reqCtx models.RequestContext) (event *models.AnalyticsEvent, err error) {
	start := time.Now()
	now := requestcontext.Now(ctx)

	ctx, span := s.tracer.Start(ctx, tracer.SpanProcessEvent,
		tracer.String(tracer.AttrCategory, string(sub.Category)),
	)
	defer func() { span.End(err) }()

	s.resolveConsent(ctx, sub, reqCtx)
	span.SetAttributes(tracer.String(tracer.AttrConsentLevel, string(sub.ConsentLevel)))

	// The gate runs before any enrichment so a denied event costs nothing
	// and leaves no trace of its payload.
	if gateErr := gate.Allow(sub.Category, sub.ConsentLevel); gateErr != nil {
		span.AddEvent(tracer.EventGateDenied)
		s.reject(gateErr, "consent gate denied event", sub)
		return nil, gateErr
	}

	sanitizer.FillDefaults(sub, reqCtx, now)

	if result := validator.Validate(sub, now); !result.Valid {
		span.AddEvent(tracer.EventValidationFailed)
		vErr := result.Err()
		s.reject(vErr, "event failed validation", sub)
		return nil, vErr
	}

	event = sanitizer.Sanitize(sub, reqCtx, now)
	span.SetAttributes(tracer.Bool(tracer.AttrAnonymized, event.Anonymized))

	if event.Category == models.CategoryPerformance && s.perf != nil && event.Value != nil {
		sample := perfmodels.Sample{
			Metric:       perfmodels.Metric(event.Action),
			Value:        *event.Value,
			Path:         event.Page.Path,
			DeviceType:   string(event.User.DeviceType),
			ConsentLevel: string(event.ConsentLevel),
			At:           event.Timestamp,
		}
		if perfErr := s.perf.RecordSample(ctx, sample); perfErr != nil {
			s.logger.Warn("performance sample not recorded",
				"metric", event.Action,
				"error", perfErr,
			)
		}
	}

	s.dispatcher.Dispatch(event)

	if s.metrics != nil {
		s.metrics.IncrementEventsProcessed(string(event.Category))
		s.metrics.ObservePipelineDuration(time.Since(start).Seconds())
	}
	return event, nil
}

// ProcessBatch runs every submission through the pipeline with per-item
// accounting. Empty and oversized batches are rejected whole; otherwise a
// bad item never blocks its neighbors.
func (s *Service) ProcessBatch(ctx context.Context, subs []*models.Submission, reqCtx models.RequestContext) (result *models.BatchResult, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanProcessBatch,
		tracer.Int(tracer.AttrBatchSize, len(subs)),
	)
	defer func() { span.End(err) }()

	if len(subs) == 0 {
		s.countBatch("rejected")
		return nil, dErrors.New(dErrors.CodeEmptyBatch, "batch contains no events")
	}
	if len(subs) > models.MaxBatchSize {
		s.countBatch("rejected")
		return nil, dErrors.New(dErrors.CodeBatchSizeExceeded, "batch exceeds maximum size")
	}
	if s.metrics != nil {
		s.metrics.ObserveBatchSize(len(subs))
	}

	result = &models.BatchResult{}
	for i, sub := range subs {
		event, itemErr := s.ProcessEvent(ctx, sub, reqCtx)
		if itemErr != nil {
			result.Failed++
			result.Errors = append(result.Errors, models.ItemError{
				Index: i,
				Code:  string(dErrors.CodeOf(itemErr)),
			})
			continue
		}
		result.Processed++
		result.EventIDs = append(result.EventIDs, event.ID.String())
	}

	switch {
	case result.Failed == 0:
		result.Status = models.BatchStatusSuccess
	case result.Processed == 0:
		result.Status = models.BatchStatusFailed
	default:
		result.Status = models.BatchStatusPartial
	}
	s.countBatch(string(result.Status))
	span.SetAttributes(
		tracer.Int(tracer.AttrProcessed, result.Processed),
		tracer.Int(tracer.AttrFailed, result.Failed),
	)
	return result, nil
}

// resolveConsent replaces the claimed consent level with the stored record's
// level when one exists. A store failure keeps the claimed level; the gate
// still bounds what it can reach.
func (s *Service) resolveConsent(ctx context.Context, sub *models.Submission, reqCtx models.RequestContext) {
	if s.consents == nil || reqCtx.SessionID == "" {
		return
	}
	sessionID, err := id.ParseSessionID(reqCtx.SessionID)
	if err != nil {
		return
	}
	record, err := s.consents.Current(ctx, sessionID)
	if err != nil {
		s.logger.Warn("consent lookup failed, using declared level",
			"session_id", reqCtx.SessionID,
			"error", err,
		)
		return
	}
	sub.ConsentLevel = record.Level
}

func (s *Service) reject(err error, msg string, sub *models.Submission) {
	s.logger.Info(msg,
		"category", sub.Category,
		"consent_level", sub.ConsentLevel,
		"error", err,
	)
	if s.metrics == nil {
		return
	}
	if dErrors.HasCode(err, dErrors.CodeMissingConsent) {
		s.metrics.IncrementEventsRejected("consent")
		return
	}
	s.metrics.IncrementEventsRejected("validation")
}

func (s *Service) countBatch(status string) {
	if s.metrics != nil {
		s.metrics.IncrementBatchesProcessed(status)
	}
}
