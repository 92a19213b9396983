package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/pkg/requestcontext"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get", func(t *testing.T) {
		s := NewInMemory()
		require.NoError(t, s.Set(ctx, "banner_shown", "true", Options{}))
		val, err := s.Get(ctx, "banner_shown")
		require.NoError(t, err)
		assert.Equal(t, "true", val)
	})

	t.Run("missing key", func(t *testing.T) {
		s := NewInMemory()
		_, err := s.Get(ctx, "absent")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("remove", func(t *testing.T) {
		s := NewInMemory()
		require.NoError(t, s.Set(ctx, "k", "v", Options{}))
		require.NoError(t, s.Remove(ctx, "k"))
		_, err := s.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expiry honored", func(t *testing.T) {
		s := NewInMemory()
		created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, s.Set(requestcontext.WithNow(ctx, created), "consent", "{}", Options{ExpiresInDays: 365}))

		// Still present the day before expiry.
		almost := requestcontext.WithNow(ctx, created.Add(364*24*time.Hour))
		_, err := s.Get(almost, "consent")
		require.NoError(t, err)

		// Gone at the boundary.
		expired := requestcontext.WithNow(ctx, created.Add(365*24*time.Hour))
		_, err = s.Get(expired, "consent")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
