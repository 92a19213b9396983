// Package storage defines the key-value collaborator used to persist consent
// records and the banner-shown marker. Implementations must honor expiry.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent or its value has expired.
var ErrNotFound = errors.New("storage: key not found")

// Options control persistence behavior for a single Set call. Secure and
// SameSite are advisory hints for cookie-backed implementations; server-side
// stores only honor the expiry.
type Options struct {
	ExpiresInDays int
	Secure        bool
	SameSite      string
}

// TTL converts the day-based expiry into a duration. Zero means no expiry.
func (o Options) TTL() time.Duration {
	if o.ExpiresInDays <= 0 {
		return 0
	}
	return time.Duration(o.ExpiresInDays) * 24 * time.Hour
}

// Store is the persistence boundary for the pipeline.
// Error Contract:
// - Get returns ErrNotFound when the key does not exist or has expired
// - Set and Remove return nil on success or wrapped errors on infrastructure failure
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, opts Options) error
	Remove(ctx context.Context, key string) error
}
