// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "beacon/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a SessionID where an EventID is expected.
type (
	EventID   uuid.UUID
	SessionID uuid.UUID
	ConsentID uuid.UUID
)

// New functions - mint fresh identifiers.

func NewEventID() EventID     { return EventID(uuid.New()) }
func NewSessionID() SessionID { return SessionID(uuid.New()) }
func NewConsentID() ConsentID { return ConsentID(uuid.New()) }

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseEventID(s string) (EventID, error) {
	id, err := parseUUID(s, "event ID")
	return EventID(id), err
}

func ParseSessionID(s string) (SessionID, error) {
	id, err := parseUUID(s, "session ID")
	return SessionID(id), err
}

func ParseConsentID(s string) (ConsentID, error) {
	id, err := parseUUID(s, "consent ID")
	return ConsentID(id), err
}

// String methods - for logging and serialization.

func (id EventID) String() string   { return uuid.UUID(id).String() }
func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id ConsentID) String() string { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id EventID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ConsentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// parseUUID is the shared validation logic. Nil UUIDs are allowed here; use
// IsNil() at the service layer for business validation so store lookups can
// return proper "not found" errors.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return id, nil
}
