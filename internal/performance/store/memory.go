// Package store keeps the sample window feeding the performance aggregator.
package store

import (
	"context"
	"sync"
	"time"

	"beacon/internal/performance/models"
)

// Store is the sample window the aggregator reads from.
type Store interface {
	// Add appends one sample to the window.
	Add(ctx context.Context, sample models.Sample) error

	// Since returns the samples taken at or after the cutoff, oldest first.
	Since(ctx context.Context, cutoff time.Time) ([]models.Sample, error)
}

// defaultCapacity bounds the in-memory window so a chatty client cannot grow
// the process without limit.
const defaultCapacity = 10000

// InMemoryStore holds samples in arrival order, evicting the oldest once the
// capacity is reached. Safe for concurrent use.
type InMemoryStore struct {
	mu       sync.RWMutex
	samples  []models.Sample
	capacity int
}

// InMemoryOption configures the InMemoryStore.
type InMemoryOption func(*InMemoryStore)

// WithCapacity overrides the default window capacity.
func WithCapacity(n int) InMemoryOption {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// NewInMemory creates an empty sample window.
func NewInMemory(opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends a sample, evicting the oldest entry when the window is full.
func (s *InMemoryStore) Add(_ context.Context, sample models.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.samples) >= s.capacity {
		copy(s.samples, s.samples[1:])
		s.samples = s.samples[:len(s.samples)-1]
	}
	s.samples = append(s.samples, sample)
	return nil
}

// Since returns a copy of every sample taken at or after the cutoff.
func (s *InMemoryStore) Since(_ context.Context, cutoff time.Time) ([]models.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Sample
	for _, sample := range s.samples {
		if !sample.At.Before(cutoff) {
			out = append(out, sample)
		}
	}
	return out, nil
}

var _ Store = (*InMemoryStore)(nil)
