// Package service implements the consent hierarchy engine: the session-scoped
// record lifecycle, granular permission lookups, and change notification.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"beacon/internal/consent/metrics"
	"beacon/internal/consent/models"
	"beacon/internal/storage"
	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/requestcontext"
)

const (
	defaultTTL     = 365 * 24 * time.Hour
	defaultVersion = "1.0"

	consentKeyPrefix = "consent:"
	bannerKeyPrefix  = "banner_shown:"
)

// Listener observes consent changes. Listeners run synchronously in
// registration order on every successful update or withdrawal; a panicking
// listener is isolated and logged, never propagated.
type Listener func(sessionID id.SessionID, record models.Record)

// Service owns the consent record lifecycle for each visitor session.
// Writes for the same session are serialized; listeners always observe a
// consistent final record.
type Service struct {
	store   storage.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	ttl     time.Duration
	version string

	mu        sync.Mutex
	listeners []Listener
}

// Option configures a Service instance.
type Option func(*Service)

// WithMetrics sets the metrics recorder for observability.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTTL configures how long a consent record stays valid after creation.
// If not set or set to zero/negative, defaults to 365 days.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithPolicyVersion sets the policy version stamped on new records.
func WithPolicyVersion(version string) Option {
	return func(s *Service) {
		if version != "" {
			s.version = version
		}
	}
}

// New creates the consent engine over the given storage collaborator.
func New(store storage.Store, logger *slog.Logger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("storage is required")
	}
	svc := &Service{
		store:   store,
		logger:  logger,
		ttl:     defaultTTL,
		version: defaultVersion,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Subscribe registers a change listener. Not safe to call concurrently with
// Update/Withdraw; wire listeners at startup.
func (s *Service) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Current returns the active consent record for the session, creating a
// first-contact record at level essential when none exists or the stored one
// has expired.
func (s *Service) Current(ctx context.Context, sessionID id.SessionID) (*models.Record, error) {
	if sessionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "session ID required")
	}

	now := requestcontext.Now(ctx)
	record, err := s.load(ctx, sessionID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if record != nil && !record.IsExpired(now) {
		return record, nil
	}

	record = models.NewRecord(now, s.version, s.ttl)
	if err := s.persist(ctx, sessionID, record); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementConsentsCreated()
	}
	return record, nil
}

// Update moves the session to a new level with optional granular overrides.
// Every successful update persists the record and notifies listeners
// synchronously in registration order.
func (s *Service) Update(ctx context.Context, sessionID id.SessionID, level models.Level, overrides map[models.Flag]bool, method models.Method) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if err := record.Apply(level, overrides, method, now); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, sessionID, record); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementConsentsUpdated(string(level), string(method))
	}
	s.notify(sessionID, *record)
	return record, nil
}

// Withdraw executes a GDPR withdrawal: level none, non-essential flags
// cleared, WithdrawnAt stamped. The record stays updatable afterwards.
func (s *Service) Withdraw(ctx context.Context, sessionID id.SessionID) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	record.Withdraw(requestcontext.Now(ctx))
	if err := s.persist(ctx, sessionID, record); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementConsentsWithdrawn()
	}
	s.notify(sessionID, *record)
	return record, nil
}

// IsTrackingAllowed looks up a granular permission on the session's record.
func (s *Service) IsTrackingAllowed(ctx context.Context, sessionID id.SessionID, flag models.Flag) (bool, error) {
	record, err := s.Current(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return record.TrackingAllowed(flag), nil
}

// MarkBannerShown persists the banner marker so the consent banner renders
// only once per session lifetime.
func (s *Service) MarkBannerShown(ctx context.Context, sessionID id.SessionID) error {
	opts := storage.Options{ExpiresInDays: expiryDays(s.ttl), Secure: true, SameSite: "Lax"}
	return s.store.Set(ctx, bannerKeyPrefix+sessionID.String(), "true", opts)
}

// BannerShown reports whether the banner marker exists for the session.
func (s *Service) BannerShown(ctx context.Context, sessionID id.SessionID) bool {
	_, err := s.store.Get(ctx, bannerKeyPrefix+sessionID.String())
	return err == nil
}

func (s *Service) load(ctx context.Context, sessionID id.SessionID) (*models.Record, error) {
	raw, err := s.store.Get(ctx, consentKeyPrefix+sessionID.String())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read consent record")
	}

	var record models.Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		// Corrupt record: treat as absent so the visitor gets a fresh
		// essential-level record instead of an error page.
		s.logger.Warn("discarding unreadable consent record",
			"session_id", sessionID.String(),
			"error", err,
		)
		return nil, storage.ErrNotFound
	}
	return &record, nil
}

func (s *Service) persist(ctx context.Context, sessionID id.SessionID, record *models.Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode consent record")
	}
	opts := storage.Options{ExpiresInDays: expiryDays(s.ttl), Secure: true, SameSite: "Lax"}
	if err := s.store.Set(ctx, consentKeyPrefix+sessionID.String(), string(raw), opts); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist consent record")
	}
	return nil
}

// notify runs listeners in registration order, isolating panics so one
// failing listener cannot starve the rest.
func (s *Service) notify(sessionID id.SessionID, record models.Record) {
	for i, listener := range s.listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					if s.metrics != nil {
						s.metrics.IncrementListenerFailures()
					}
					s.logger.Error("consent listener panicked",
						"listener_index", i,
						"session_id", sessionID.String(),
						"panic", r,
					)
				}
			}()
			listener(sessionID, record)
		}()
	}
}

func expiryDays(ttl time.Duration) int {
	days := int(ttl / (24 * time.Hour))
	if days < 1 {
		days = 1
	}
	return days
}
