// Package handler ingests telemetry events over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"beacon/internal/events/models"
	"beacon/internal/platform/middleware"
	"beacon/internal/transport/http/respond"
	dErrors "beacon/pkg/domain-errors"
)

// SessionHeader carries the visitor's session identifier.
const SessionHeader = "X-Session-ID"

// Service defines the pipeline operations the handler needs.
type Service interface {
	ProcessEvent(ctx context.Context, sub *models.Submission, reqCtx models.RequestContext) (*models.AnalyticsEvent, error)
	ProcessBatch(ctx context.Context, subs []*models.Submission, reqCtx models.RequestContext) (*models.BatchResult, error)
}

// Handler handles event ingestion endpoints.
type Handler struct {
	logger *slog.Logger
	events Service
}

// New creates an events Handler.
func New(events Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		events: events,
	}
}

// Register registers the event routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/events", h.HandleEvent)
	r.Post("/events/batch", h.HandleBatch)
}

type eventResponse struct {
	EventID    string `json:"eventId"`
	Anonymized bool   `json:"anonymized"`
}

type batchRequest struct {
	Events []*models.Submission `json:"events"`
}

func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var sub models.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.logger.WarnContext(ctx, "failed to decode event submission",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		respond.Error(w, dErrors.New(dErrors.CodeMalformedPayload, "invalid request body"))
		return
	}

	event, err := h.events.ProcessEvent(ctx, &sub, requestContext(r))
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.OK(w, http.StatusCreated, eventResponse{
		EventID:    event.ID.String(),
		Anonymized: event.Anonymized,
	})
}

func (h *Handler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode event batch",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		respond.Error(w, dErrors.New(dErrors.CodeMalformedPayload, "invalid request body"))
		return
	}

	result, err := h.events.ProcessBatch(ctx, req.Events, requestContext(r))
	if err != nil {
		respond.Error(w, err)
		return
	}

	switch result.Status {
	case models.BatchStatusSuccess:
		respond.OK(w, http.StatusCreated, result)
	case models.BatchStatusPartial:
		respond.OK(w, http.StatusMultiStatus, result)
	default:
		respond.FailData(w, http.StatusBadRequest, dErrors.CodeValidation,
			"no event in the batch was accepted", result)
	}
}

// requestContext captures the request-scoped facts the enricher may need to
// fill gaps in a submission.
func requestContext(r *http.Request) models.RequestContext {
	return models.RequestContext{
		Path:      refererPath(r.Header.Get("Referer")),
		Referrer:  r.Header.Get("Referer"),
		Language:  r.Header.Get("Accept-Language"),
		UserAgent: r.Header.Get("User-Agent"),
		ClientIP:  middleware.GetClientIP(r.Context()),
		SessionID: r.Header.Get(SessionHeader),
	}
}

func refererPath(referer string) string {
	if referer == "" {
		return ""
	}
	u, err := url.Parse(referer)
	if err != nil {
		return ""
	}
	return u.Path
}
