// Package models defines the rate limit key and result value objects.
package models

import (
	"fmt"
	"strings"
	"time"
)

// EndpointClass groups endpoints that share a rate ceiling.
type EndpointClass string

const (
	// ClassMutation covers consent writes and other state-changing calls.
	ClassMutation EndpointClass = "mutation"

	// ClassTelemetry covers event and performance ingestion.
	ClassTelemetry EndpointClass = "telemetry"

	// ClassRead covers report and consent reads.
	ClassRead EndpointClass = "read"
)

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int
}

const keyPrefixClient = "client"

// Key is a value object encapsulating bucket key construction. It
// centralizes format and sanitization so user-controlled identifiers cannot
// collide with adjacent buckets.
type Key struct {
	identifier string
	class      EndpointClass
}

// NewClientKey creates a per-client, per-class bucket key.
func NewClientKey(clientID string, class EndpointClass) Key {
	return Key{
		identifier: sanitizeKeySegment(clientID),
		class:      class,
	}
}

// String returns the formatted key for bucket lookup.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", keyPrefixClient, k.identifier, k.class)
}

// sanitizeKeySegment escapes delimiter characters in key segments. Escape
// order matters: the escape character first, then the delimiter, so no two
// distinct inputs produce the same sanitized output.
func sanitizeKeySegment(s string) string {
	s = strings.ReplaceAll(s, "_", "__")
	s = strings.ReplaceAll(s, ":", "_c")
	return s
}
