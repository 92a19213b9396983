package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/pkg/requestcontext"
)

var anchor = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func ctxAt(offset time.Duration) context.Context {
	return requestcontext.WithNow(context.Background(), anchor.Add(offset))
}

func TestAllowUpToLimit(t *testing.T) {
	s := NewInMemory()

	for i := 0; i < 10; i++ {
		result, err := s.Allow(ctxAt(0), "client:a:mutation", 10, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 10-(i+1), result.Remaining)
	}

	result, err := s.Allow(ctxAt(0), "client:a:mutation", 10, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.GreaterOrEqual(t, result.RetryAfter, 1)
}

func TestWindowSlides(t *testing.T) {
	s := NewInMemory()

	for i := 0; i < 10; i++ {
		_, err := s.Allow(ctxAt(0), "k", 10, time.Minute)
		require.NoError(t, err)
	}

	denied, err := s.Allow(ctxAt(30*time.Second), "k", 10, time.Minute)
	require.NoError(t, err)
	assert.False(t, denied.Allowed)

	// Once the first timestamps age out, capacity returns.
	allowed, err := s.Allow(ctxAt(61*time.Second), "k", 10, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed.Allowed)
}

func TestKeysAreIsolated(t *testing.T) {
	s := NewInMemory()

	for i := 0; i < 10; i++ {
		_, err := s.Allow(ctxAt(0), "client:a:mutation", 10, time.Minute)
		require.NoError(t, err)
	}

	result, err := s.Allow(ctxAt(0), "client:b:mutation", 10, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestResetClearsWindow(t *testing.T) {
	s := NewInMemory()

	for i := 0; i < 10; i++ {
		_, err := s.Allow(ctxAt(0), "k", 10, time.Minute)
		require.NoError(t, err)
	}
	require.NoError(t, s.Reset(context.Background(), "k"))

	result, err := s.Allow(ctxAt(0), "k", 10, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestResetAtTracksOldestTimestamp(t *testing.T) {
	s := NewInMemory()

	first, err := s.Allow(ctxAt(0), "k", 2, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, anchor.Add(time.Minute), first.ResetAt)

	second, err := s.Allow(ctxAt(10*time.Second), "k", 2, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, anchor.Add(time.Minute), second.ResetAt, "reset tracks the oldest request")
}

func TestSweepRemovesExpiredBuckets(t *testing.T) {
	s := NewInMemory()

	_, err := s.Allow(ctxAt(0), "stale", 10, time.Minute)
	require.NoError(t, err)

	// The sweep is probabilistic on Allow; invoke it directly.
	s.mu.Lock()
	s.sweep(anchor.Add(2 * time.Minute))
	s.mu.Unlock()

	s.mu.Lock()
	_, ok := s.buckets["stale"]
	s.mu.Unlock()
	assert.False(t, ok)
}
