// Package service exposes the rate limit check used by the transport layer.
package service

import (
	"context"
	"log/slog"
	"time"

	"beacon/internal/ratelimit/config"
	"beacon/internal/ratelimit/metrics"
	"beacon/internal/ratelimit/models"
	dErrors "beacon/pkg/domain-errors"
)

// BucketStore is the persistence interface for sliding-window state.
type BucketStore interface {
	// Allow checks whether a request fits the key's window and records it.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)

	// Reset clears the window for a key.
	Reset(ctx context.Context, key string) error
}

// Service checks client request rates against per-class ceilings.
type Service struct {
	buckets BucketStore
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithConfig overrides the default per-class ceilings.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithMetrics enables Prometheus metrics collection.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a rate limit service over the given bucket store.
func New(buckets BucketStore, logger *slog.Logger, opts ...Option) (*Service, error) {
	if buckets == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "bucket store is required")
	}
	s := &Service{
		buckets: buckets,
		config:  config.Default(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Check records one request for the client against its class ceiling.
func (s *Service) Check(ctx context.Context, clientID string, class models.EndpointClass) (*models.Result, error) {
	limit := s.config.LimitFor(class)
	key := models.NewClientKey(clientID, class)

	result, err := s.buckets.Allow(ctx, key.String(), limit.RequestsPerWindow, limit.Window)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementErrors()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "checking rate limit")
	}

	if s.metrics != nil {
		if result.Allowed {
			s.metrics.IncrementAllowed(string(class))
		} else {
			s.metrics.IncrementRejected(string(class))
		}
	}
	if !result.Allowed {
		s.logger.Info("rate limit exceeded",
			"class", class,
			"retry_after", result.RetryAfter,
		)
	}
	return result, nil
}

// Reset clears the client's window for a class. Used by tests and ops tooling.
func (s *Service) Reset(ctx context.Context, clientID string, class models.EndpointClass) error {
	return s.buckets.Reset(ctx, models.NewClientKey(clientID, class).String())
}
