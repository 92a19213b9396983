package storage

import (
	"context"
	"sync"
	"time"

	"beacon/pkg/requestcontext"
)

// InMemoryStore keeps values in process memory. Suitable for single-instance
// deployments and tests; expired entries are dropped on read.
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[string]entry
}

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// NewInMemory constructs an empty in-memory store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{values: make(map[string]entry)}
}

func (s *InMemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	e, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	if !e.expiresAt.IsZero() && !requestcontext.Now(ctx).Before(e.expiresAt) {
		s.mu.Lock()
		delete(s.values, key)
		s.mu.Unlock()
		return "", ErrNotFound
	}
	return e.value, nil
}

func (s *InMemoryStore) Set(ctx context.Context, key, value string, opts Options) error {
	var expiresAt time.Time
	if ttl := opts.TTL(); ttl > 0 {
		expiresAt = requestcontext.Now(ctx).Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = entry{value: value, expiresAt: expiresAt}
	return nil
}

func (s *InMemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
