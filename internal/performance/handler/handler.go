// Package handler exposes performance sample ingestion and reporting.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"beacon/internal/consent/gate"
	consent "beacon/internal/consent/models"
	eventmodels "beacon/internal/events/models"
	"beacon/internal/performance/models"
	"beacon/internal/platform/middleware"
	"beacon/internal/transport/http/respond"
	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/requestcontext"
	"beacon/pkg/validation"
)

// SessionHeader carries the visitor's session identifier.
const SessionHeader = "X-Session-ID"

// Service defines the aggregation operations the handler needs.
type Service interface {
	RecordSample(ctx context.Context, sample models.Sample) error
	Report(ctx context.Context, window time.Duration) (*models.Report, error)
}

// ConsentSource resolves the session's consent record so direct sample
// ingestion honors the same gate as the event pipeline.
type ConsentSource interface {
	Current(ctx context.Context, sessionID id.SessionID) (*consent.Record, error)
}

// Handler handles performance endpoints.
type Handler struct {
	logger      *slog.Logger
	performance Service
	consents    ConsentSource
}

// New creates a performance Handler.
func New(performance Service, consents ConsentSource, logger *slog.Logger) *Handler {
	return &Handler{
		logger:      logger,
		performance: performance,
		consents:    consents,
	}
}

// Register registers the performance routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/performance", h.HandleRecord)
	r.Get("/performance/report", h.HandleReport)
}

type sampleRequest struct {
	Metric     string     `json:"metric" validate:"required,notblank"`
	Value      float64    `json:"value" validate:"gte=0"`
	Path       string     `json:"path,omitempty"`
	DeviceType string     `json:"deviceType,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	level, err := h.allow(ctx, r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	var req sampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode performance sample",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		respond.Error(w, dErrors.New(dErrors.CodeMalformedPayload, "invalid request body"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		respond.Error(w, err)
		return
	}

	at := requestcontext.Now(ctx)
	if req.Timestamp != nil {
		at = *req.Timestamp
	}
	sample := models.Sample{
		Metric:       models.Metric(req.Metric),
		Value:        req.Value,
		Path:         req.Path,
		DeviceType:   req.DeviceType,
		ConsentLevel: string(level),
		At:           at,
	}
	if err := h.performance.RecordSample(ctx, sample); err != nil {
		respond.Error(w, err)
		return
	}

	respond.OK(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var window time.Duration
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			respond.Error(w, dErrors.New(dErrors.CodeInvalidInput, "window must be a positive duration"))
			return
		}
		window = parsed
	}

	report, err := h.performance.Report(ctx, window)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate performance report",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		respond.Error(w, err)
		return
	}

	respond.OK(w, http.StatusOK, report)
}

// allow enforces the same consent gate the event pipeline applies to
// performance-category events.
func (h *Handler) allow(ctx context.Context, r *http.Request) (consent.Level, error) {
	level := consent.LevelNone
	if sessionID, err := id.ParseSessionID(r.Header.Get(SessionHeader)); err == nil {
		record, err := h.consents.Current(ctx, sessionID)
		if err != nil {
			return level, err
		}
		level = record.Level
	}
	return level, gate.Allow(eventmodels.CategoryPerformance, level)
}
