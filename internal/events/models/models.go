// Package models defines the analytics event shapes flowing through the
// pipeline and the batch accounting types.
package models

import (
	"time"

	consent "beacon/internal/consent/models"
	id "beacon/pkg/domain"
)

// Category classifies a tracked occurrence. The set is closed; unknown
// categories are rejected, never coerced.
type Category string

const (
	CategoryPageView         Category = "page_view"
	CategoryInteraction      Category = "interaction"
	CategoryNavigation       Category = "navigation"
	CategoryPerformance      Category = "performance"
	CategoryError            Category = "error"
	CategoryNewsletterSignup Category = "newsletter_signup"
	CategoryConversion       Category = "conversion"
)

// ValidCategories is the single source of truth for event categories.
var ValidCategories = map[Category]bool{
	CategoryPageView:         true,
	CategoryInteraction:      true,
	CategoryNavigation:       true,
	CategoryPerformance:      true,
	CategoryError:            true,
	CategoryNewsletterSignup: true,
	CategoryConversion:       true,
}

// IsValid checks if the category is one of the supported enum values.
func (c Category) IsValid() bool {
	return ValidCategories[c]
}

// DeviceType is the coarse device classification supplied by the client.
type DeviceType string

const (
	DeviceDesktop DeviceType = "desktop"
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceUnknown DeviceType = "unknown"
)

// IsValid checks if the device type is one of the supported enum values.
func (d DeviceType) IsValid() bool {
	switch d {
	case DeviceDesktop, DeviceMobile, DeviceTablet, DeviceUnknown:
		return true
	}
	return false
}

// PageContext describes the page on which the event occurred.
type PageContext struct {
	Path     string  `json:"path"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Referrer string  `json:"referrer,omitempty"`
	Query    string  `json:"query,omitempty"`
	Hash     string  `json:"hash,omitempty"`
	LoadTime float64 `json:"loadTime,omitempty"`
}

// UserContext describes the visitor's environment, never their identity.
type UserContext struct {
	DeviceType    DeviceType `json:"deviceType"`
	Browser       string     `json:"browser,omitempty"`
	Platform      string     `json:"platform,omitempty"`
	UserAgent     string     `json:"userAgent"`
	Timezone      string     `json:"timezone"`
	Language      string     `json:"language"`
	FirstVisit    bool       `json:"firstVisit,omitempty"`
	SessionStart  time.Time  `json:"sessionStart,omitempty"`
	PageViewCount int        `json:"pageViewCount,omitempty"`
}

// Submission is the raw event payload as supplied by the caller, before
// validation and sanitization.
type Submission struct {
	ID           string         `json:"id,omitempty"`
	Timestamp    *time.Time     `json:"timestamp,omitempty"`
	SessionID    string         `json:"sessionId"`
	UserID       string         `json:"userId,omitempty"`
	Category     Category       `json:"category"`
	Action       string         `json:"action"`
	Label        string         `json:"label,omitempty"`
	Value        *float64       `json:"value,omitempty"`
	Page         *PageContext   `json:"page,omitempty"`
	User         *UserContext   `json:"user,omitempty"`
	ConsentLevel consent.Level  `json:"consentLevel"`
	Anonymized   *bool          `json:"anonymized,omitempty"`
	CustomData   map[string]any `json:"customData,omitempty"`
}

// AnalyticsEvent is the accepted, sanitized event. Immutable once minted;
// it exists only until handed to the provider sinks.
type AnalyticsEvent struct {
	ID           id.EventID     `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	SessionID    id.SessionID   `json:"sessionId"`
	UserID       string         `json:"userId,omitempty"`
	Category     Category       `json:"category"`
	Action       string         `json:"action"`
	Label        string         `json:"label,omitempty"`
	Value        *float64       `json:"value,omitempty"`
	Page         PageContext    `json:"page"`
	User         UserContext    `json:"user"`
	ConsentLevel consent.Level  `json:"consentLevel"`
	Anonymized   bool           `json:"anonymized"`
	ClientID     string         `json:"clientId"`
	CustomData   map[string]any `json:"customData,omitempty"`
}

// RequestContext carries the request-scoped facts the enricher may need to
// fill gaps in a submission. It replaces the global "current page/session"
// state a browser runtime would provide.
type RequestContext struct {
	Path      string
	Referrer  string
	Language  string
	UserAgent string
	ClientIP  string
	SessionID string
}

// ItemError records one failed batch item by position.
type ItemError struct {
	Index int    `json:"index"`
	Code  string `json:"errorCode"`
}

// BatchStatus summarizes a batch outcome.
type BatchStatus string

const (
	BatchStatusSuccess BatchStatus = "success"
	BatchStatusPartial BatchStatus = "partial_success"
	BatchStatusFailed  BatchStatus = "failed"
)

// BatchResult reports per-item accounting for a processed batch.
// Invariant: Processed + Failed == number of submitted events.
type BatchResult struct {
	Status    BatchStatus `json:"status"`
	Processed int         `json:"processed"`
	Failed    int         `json:"failed"`
	EventIDs  []string    `json:"eventIds,omitempty"`
	Errors    []ItemError `json:"errors,omitempty"`
}

// MaxBatchSize is the whole-batch rejection threshold.
const MaxBatchSize = 100
