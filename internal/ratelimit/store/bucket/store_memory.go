// Package bucket persists sliding-window rate limit state.
package bucket

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"beacon/internal/ratelimit/models"
	"beacon/pkg/requestcontext"
)

// sweepChance is the reciprocal probability of a map-wide sweep on Allow.
// Amortizes cleanup of buckets whose clients went away.
const sweepChance = 100

// InMemoryBucketStore implements a sliding window over request timestamps.
// Suitable for single-instance deployments.
type InMemoryBucketStore struct {
	mu      sync.Mutex
	buckets map[string]*slidingWindow
}

type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

// tryConsume records one request if the window has room. Returns the verdict,
// remaining capacity and when the window resets.
func (sw *slidingWindow) tryConsume(limit int, now time.Time) (allowed bool, remaining int, resetAt time.Time) {
	sw.dropExpired(now)

	if len(sw.timestamps) >= limit {
		return false, 0, sw.timestamps[0].Add(sw.window)
	}
	sw.timestamps = append(sw.timestamps, now)
	return true, limit - len(sw.timestamps), sw.timestamps[0].Add(sw.window)
}

func (sw *slidingWindow) dropExpired(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

// NewInMemory creates an empty bucket store.
func NewInMemory() *InMemoryBucketStore {
	return &InMemoryBucketStore{
		buckets: make(map[string]*slidingWindow),
	}
}

// Allow checks the key's window and records the request when permitted.
func (s *InMemoryBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if rand.Intn(sweepChance) == 0 {
		s.sweep(now)
	}

	bucket, ok := s.buckets[key]
	if !ok {
		bucket = &slidingWindow{window: window}
		s.buckets[key] = bucket
	}
	allowed, remaining, resetAt := bucket.tryConsume(limit, now)

	return &models.Result{
		Allowed:    allowed,
		Limit:      limit,
		Remaining:  remaining,
		ResetAt:    resetAt,
		RetryAfter: retryAfterSeconds(allowed, resetAt, now),
	}, nil
}

// Reset clears the window for a key.
func (s *InMemoryBucketStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}

// sweep removes buckets whose every timestamp has expired. Caller holds mu.
func (s *InMemoryBucketStore) sweep(now time.Time) {
	for key, bucket := range s.buckets {
		bucket.dropExpired(now)
		if len(bucket.timestamps) == 0 {
			delete(s.buckets, key)
		}
	}
}

func retryAfterSeconds(allowed bool, resetAt, now time.Time) int {
	if allowed {
		return 0
	}
	seconds := int(resetAt.Sub(now).Seconds())
	if seconds < 1 {
		return 1
	}
	return seconds
}
