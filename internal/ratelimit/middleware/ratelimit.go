// Package middleware enforces per-client rate limits on the router.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	platformMW "beacon/internal/platform/middleware"
	"beacon/internal/platform/privacy"
	"beacon/internal/ratelimit/models"
	"beacon/internal/transport/http/respond"
	dErrors "beacon/pkg/domain-errors"
)

// SessionHeader carries the visitor's session identifier. Combined with the
// client IP it keys the bucket without storing either raw value.
const SessionHeader = "X-Session-ID"

// RateLimiter is the check the middleware enforces.
type RateLimiter interface {
	Check(ctx context.Context, clientID string, class models.EndpointClass) (*models.Result, error)
}

// Middleware wraps handlers with per-class rate limiting.
type Middleware struct {
	limiter RateLimiter
	logger  *slog.Logger
}

// New creates the rate limit middleware.
func New(limiter RateLimiter, logger *slog.Logger) *Middleware {
	return &Middleware{
		limiter: limiter,
		logger:  logger,
	}
}

// Limit enforces the given endpoint class's ceiling. Limiter failures fail
// open: availability of the site beats precision of the ceiling.
func (m *Middleware) Limit(class models.EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := platformMW.GetClientIP(ctx)
			clientID := privacy.HashClientID(ip, r.Header.Get(SessionHeader))

			result, err := m.limiter.Check(ctx, clientID, class)
			if err != nil {
				m.logger.Error("rate limit check failed, allowing request",
					"class", class,
					"ip_prefix", privacy.AnonymizeIP(ip),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			// Headers go out on every response so well-behaved clients can
			// pace themselves before hitting the ceiling.
			addRateLimitHeaders(w, result)

			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				respond.Fail(w, http.StatusTooManyRequests, dErrors.CodeRateLimited,
					"too many requests, please retry later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
