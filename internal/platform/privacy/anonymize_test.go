package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ipv4 zeroes last octet", "192.168.1.47", "192.168.1.0"},
		{"ipv4 already network address", "10.0.0.0", "10.0.0.0"},
		{"ipv6 keeps /48 prefix", "2001:db8:85a3::8a2e:370:7334", "2001:0db8:85a3::"},
		{"empty", "", "unknown"},
		{"unknown passthrough", "unknown", "unknown"},
		{"garbage", "not-an-ip", "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnonymizeIP(tt.in))
		})
	}
}

func TestHashClientID(t *testing.T) {
	t.Run("stable for identical input", func(t *testing.T) {
		a := HashClientID("203.0.113.9", "sess-1")
		b := HashClientID("203.0.113.9", "sess-1")
		assert.Equal(t, a, b)
	})

	t.Run("differs per session", func(t *testing.T) {
		a := HashClientID("203.0.113.9", "sess-1")
		b := HashClientID("203.0.113.9", "sess-2")
		assert.NotEqual(t, a, b)
	})

	t.Run("never echoes the raw IP", func(t *testing.T) {
		h := HashClientID("203.0.113.9", "sess-1")
		assert.NotContains(t, h, "203.0.113.9")
		assert.Len(t, h, 32)
	})
}
