// Package httptransport assembles the public HTTP surface: routing,
// middleware ordering, and rate limit classes per endpoint.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	consenthandler "beacon/internal/consent/handler"
	eventshandler "beacon/internal/events/handler"
	perfhandler "beacon/internal/performance/handler"
	"beacon/internal/platform/health"
	"beacon/internal/platform/middleware"
	ratelimitmodels "beacon/internal/ratelimit/models"
	"beacon/internal/transport/http/respond"
	dErrors "beacon/pkg/domain-errors"
)

const requestTimeout = 30 * time.Second

// RateLimiter applies a per-class limit to the wrapped routes. The router
// only cares about the middleware shape, not the backing store.
type RateLimiter interface {
	Limit(class ratelimitmodels.EndpointClass) func(http.Handler) http.Handler
}

// Routes holds the handlers the router exposes.
type Routes struct {
	Consent     *consenthandler.Handler
	Events      *eventshandler.Handler
	Performance *perfhandler.Handler
	Health      *health.Handler
	RateLimit   RateLimiter
}

// NewRouter wires all public endpoints with the shared middleware stack.
// Endpoints are grouped by rate limit class: reads are cheap, mutations are
// scarce, and telemetry ingestion sits in between.
func NewRouter(routes Routes, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Fail(w, http.StatusNotFound, dErrors.CodeNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Fail(w, http.StatusMethodNotAllowed, dErrors.CodeInvalidInput, "method not allowed")
	})

	if routes.Health != nil {
		r.Get("/healthz", routes.Health.HandleStatus)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	read := noopLimit
	mutation := noopLimit
	telemetry := noopLimit
	if routes.RateLimit != nil {
		read = routes.RateLimit.Limit(ratelimitmodels.ClassRead)
		mutation = routes.RateLimit.Limit(ratelimitmodels.ClassMutation)
		telemetry = routes.RateLimit.Limit(ratelimitmodels.ClassTelemetry)
	}

	if routes.Consent != nil {
		r.With(read).Get("/consent", routes.Consent.HandleCurrent)
		r.With(mutation).Put("/consent", routes.Consent.HandleUpdate)
		r.With(mutation).Delete("/consent", routes.Consent.HandleWithdraw)
	}

	if routes.Events != nil {
		r.With(telemetry).Post("/events", routes.Events.HandleEvent)
		r.With(telemetry).Post("/events/batch", routes.Events.HandleBatch)
	}

	if routes.Performance != nil {
		r.With(telemetry).Post("/performance", routes.Performance.HandleRecord)
		r.With(read).Get("/performance/report", routes.Performance.HandleReport)
	}

	return r
}

func noopLimit(next http.Handler) http.Handler { return next }
