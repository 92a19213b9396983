// Package requestcontext carries request-scoped values that cut across layers.
// The injectable clock keeps time-dependent logic deterministic in tests.
package requestcontext

import (
	"context"
	"time"
)

type nowKey struct{}

// WithNow pins the clock for the given context. Tests use this to exercise
// expiry and window logic without sleeping.
func WithNow(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, nowKey{}, now)
}

// Now returns the pinned clock for the context, or the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(nowKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
