package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientKeyFormat(t *testing.T) {
	key := NewClientKey("abc123", ClassTelemetry)
	assert.Equal(t, "client:abc123:telemetry", key.String())
}

func TestKeySanitizationPreventsCollisions(t *testing.T) {
	// Two identifiers that would collide without escaping.
	a := NewClientKey("evil:telemetry", ClassMutation)
	b := NewClientKey("evil", ClassMutation)
	assert.NotEqual(t, a.String(), b.String())

	// Escape character itself round-trips distinctly.
	c := NewClientKey("user_:x", ClassRead)
	d := NewClientKey("user:_x", ClassRead)
	assert.NotEqual(t, c.String(), d.String())
}

func TestKeySanitizationIsDeterministic(t *testing.T) {
	assert.Equal(t,
		NewClientKey("a:b_c", ClassRead).String(),
		NewClientKey("a:b_c", ClassRead).String(),
	)
}
