package models

import (
	"time"

	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
)

// Record captures a visitor's consent decision for one session.
//
// # Invariants
//
//   - Granular[FlagEssential] is true for every level, including none and
//     withdrawn records.
//   - Level and Granular stay mutually consistent per DefaultFlags unless an
//     explicit override was supplied; overrides never flip essential off.
//   - The record expires TTL after Timestamp (creation), after which it is
//     treated as absent and regenerated on next contact.
type Record struct {
	ConsentID   id.ConsentID  `json:"consentId"`
	Timestamp   time.Time     `json:"timestamp"`
	Version     string        `json:"version"`
	Level       Level         `json:"level"`
	Granular    map[Flag]bool `json:"granular"`
	Method      Method        `json:"method"`
	LastUpdated time.Time     `json:"lastUpdated"`
	WithdrawnAt *time.Time    `json:"withdrawnAt,omitempty"`
	ExpiresAt   *time.Time    `json:"expiresAt,omitempty"`
}

// NewRecord creates a first-contact record at level essential, captured by
// the auto-essential method.
func NewRecord(now time.Time, version string, ttl time.Duration) *Record {
	r := &Record{
		ConsentID:   id.NewConsentID(),
		Timestamp:   now,
		Version:     version,
		Level:       LevelEssential,
		Granular:    DefaultFlags(LevelEssential),
		Method:      MethodAutoEssential,
		LastUpdated: now,
	}
	if ttl > 0 {
		expires := now.Add(ttl)
		r.ExpiresAt = &expires
	}
	return r
}

// Apply mutates the record to a new level with optional granular overrides.
// Unspecified flags keep the level defaults; essential cannot be overridden
// to false. A withdrawn record becomes active again.
func (r *Record) Apply(level Level, overrides map[Flag]bool, method Method, now time.Time) error {
	if !level.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown consent level")
	}
	if !method.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown consent method")
	}

	flags := DefaultFlags(level)
	for flag, value := range overrides {
		if !isKnownFlag(flag) {
			return dErrors.New(dErrors.CodeInvalidInput, "unknown granular flag: "+string(flag))
		}
		flags[flag] = value
	}
	flags[FlagEssential] = true

	r.Level = level
	r.Granular = flags
	r.Method = method
	r.LastUpdated = now
	r.WithdrawnAt = nil
	return nil
}

// Withdraw forces the record to level none with all non-essential flags
// cleared, stamping WithdrawnAt. Withdrawal is not terminal: the record can
// be updated again afterwards.
func (r *Record) Withdraw(now time.Time) {
	r.Level = LevelNone
	r.Granular = DefaultFlags(LevelNone)
	r.Method = MethodGDPRRequest
	r.LastUpdated = now
	withdrawn := now
	r.WithdrawnAt = &withdrawn
}

// IsExpired reports whether the record has outlived its TTL.
func (r *Record) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}

// HasLevel reports whether the record satisfies the required level.
func (r *Record) HasLevel(required Level) bool {
	return HasLevel(r.Level, required)
}

// TrackingAllowed looks up a granular permission on the record.
func (r *Record) TrackingAllowed(flag Flag) bool {
	return r.Granular[flag]
}

func isKnownFlag(flag Flag) bool {
	for _, f := range AllFlags {
		if f == flag {
			return true
		}
	}
	return false
}
