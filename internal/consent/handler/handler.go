// Package handler exposes the consent record over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"beacon/internal/consent/models"
	"beacon/internal/platform/middleware"
	"beacon/internal/transport/http/respond"
	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/validation"
)

// SessionHeader carries the visitor's session identifier. Responses echo it
// back so first-contact visitors learn the session they were minted.
const SessionHeader = "X-Session-ID"

// Service defines the consent operations the handler needs.
type Service interface {
	Current(ctx context.Context, sessionID id.SessionID) (*models.Record, error)
	Update(ctx context.Context, sessionID id.SessionID, level models.Level, overrides map[models.Flag]bool, method models.Method) (*models.Record, error)
	Withdraw(ctx context.Context, sessionID id.SessionID) (*models.Record, error)
	MarkBannerShown(ctx context.Context, sessionID id.SessionID) error
	BannerShown(ctx context.Context, sessionID id.SessionID) bool
}

// Handler handles consent endpoints.
type Handler struct {
	logger  *slog.Logger
	consent Service
}

// New creates a consent Handler.
func New(consent Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		consent: consent,
	}
}

// Register registers the consent routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/consent", h.HandleCurrent)
	r.Put("/consent", h.HandleUpdate)
	r.Delete("/consent", h.HandleWithdraw)
}

type consentResponse struct {
	SessionID   string         `json:"sessionId"`
	Consent     *models.Record `json:"consent"`
	BannerShown bool           `json:"bannerShown"`
}

type updateRequest struct {
	Level       string          `json:"level" validate:"required,oneof=none essential functional analytics marketing full"`
	Granular    map[string]bool `json:"granular,omitempty"`
	Method      string          `json:"method,omitempty" validate:"omitempty,oneof=banner-accept banner-reject settings-update gdpr-request"`
	BannerShown *bool           `json:"bannerShown,omitempty"`
}

// HandleCurrent returns the session's consent record, minting an essential
// record and, if needed, a session identifier on first contact.
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := h.sessionID(r)

	record, err := h.consent.Current(ctx, sessionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load consent record",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		respond.Error(w, err)
		return
	}

	w.Header().Set(SessionHeader, sessionID.String())
	respond.OK(w, http.StatusOK, consentResponse{
		SessionID:   sessionID.String(),
		Consent:     record,
		BannerShown: h.consent.BannerShown(ctx, sessionID),
	})
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	sessionID := h.sessionID(r)

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode consent update",
			"request_id", requestID,
			"error", err,
		)
		respond.Error(w, dErrors.New(dErrors.CodeMalformedPayload, "invalid request body"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		respond.Error(w, err)
		return
	}

	method := models.Method(req.Method)
	if req.Method == "" {
		method = models.MethodSettingsUpdate
	}

	record, err := h.consent.Update(ctx, sessionID, models.Level(req.Level), granularOverrides(req.Granular), method)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to update consent",
			"request_id", requestID,
			"level", req.Level,
			"error", err,
		)
		respond.Error(w, err)
		return
	}

	if req.BannerShown != nil && *req.BannerShown {
		if err := h.consent.MarkBannerShown(ctx, sessionID); err != nil {
			h.logger.WarnContext(ctx, "failed to persist banner marker",
				"request_id", requestID,
				"error", err,
			)
		}
	}

	w.Header().Set(SessionHeader, sessionID.String())
	respond.OK(w, http.StatusOK, consentResponse{
		SessionID:   sessionID.String(),
		Consent:     record,
		BannerShown: h.consent.BannerShown(ctx, sessionID),
	})
}

func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := h.sessionID(r)

	record, err := h.consent.Withdraw(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to withdraw consent",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		respond.Error(w, err)
		return
	}

	w.Header().Set(SessionHeader, sessionID.String())
	respond.OK(w, http.StatusOK, consentResponse{
		SessionID: sessionID.String(),
		Consent:   record,
	})
}

// sessionID extracts the session from the request header, minting a fresh
// one when absent or unparseable.
func (h *Handler) sessionID(r *http.Request) id.SessionID {
	raw := r.Header.Get(SessionHeader)
	if raw == "" {
		return id.NewSessionID()
	}
	sessionID, err := id.ParseSessionID(raw)
	if err != nil {
		return id.NewSessionID()
	}
	return sessionID
}

func granularOverrides(raw map[string]bool) map[models.Flag]bool {
	if len(raw) == 0 {
		return nil
	}
	overrides := make(map[models.Flag]bool, len(raw))
	for name, value := range raw {
		overrides[models.Flag(name)] = value
	}
	return overrides
}
