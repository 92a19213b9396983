// Package validator performs structural and semantic checks on a single
// event submission. Validation is pure: same input, same verdict, no side
// effects, and every violated rule is reported so callers can surface
// complete diagnostics.
package validator

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"beacon/internal/consent/gate"
	"beacon/internal/events/models"
	dErrors "beacon/pkg/domain-errors"
)

const (
	// MaxPayloadBytes caps the serialized submission size.
	MaxPayloadBytes = 10 * 1024

	// maxFutureSkew and maxAge bound acceptable client-supplied timestamps.
	maxFutureSkew = time.Minute
	maxAge        = 24 * time.Hour
)

// markupChars are rejected anywhere in the action string.
const markupChars = "<>{}[]"

// schemePrefixes are rejected as substrings of the lowercased action.
var schemePrefixes = []string{"javascript:", "data:", "vbscript:"}

// Result reports the verdict and every violated rule.
type Result struct {
	Valid  bool
	Errors []string

	// ConsentViolation marks that the (only meaningful) failure is an
	// insufficient consent level, so callers can map it to a consent error
	// rather than a generic validation error.
	ConsentViolation bool
}

// Err converts a failed result into a typed domain error, nil when valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	msg := strings.Join(r.Errors, "; ")
	if r.ConsentViolation {
		return dErrors.New(dErrors.CodeMissingConsent, msg)
	}
	return dErrors.New(dErrors.CodeValidation, msg)
}

// Validate checks a submission against every rule, collecting all failures.
// now anchors timestamp sanity so the function stays deterministic in tests.
func Validate(sub *models.Submission, now time.Time) Result {
	var errs []string
	consentOnly := false

	if strings.TrimSpace(sub.SessionID) == "" {
		errs = append(errs, "sessionId is required")
	}

	if !sub.Category.IsValid() {
		errs = append(errs, fmt.Sprintf("unknown category: %q", sub.Category))
	}

	errs = append(errs, validateAction(sub.Action)...)
	errs = append(errs, validatePage(sub.Page)...)
	errs = append(errs, validateUser(sub.User)...)

	if raw, err := json.Marshal(sub); err != nil || len(raw) > MaxPayloadBytes {
		errs = append(errs, fmt.Sprintf("payload exceeds %d bytes", MaxPayloadBytes))
	}

	if !sub.ConsentLevel.IsValid() {
		errs = append(errs, fmt.Sprintf("unknown consent level: %q", sub.ConsentLevel))
	} else if sub.Category.IsValid() {
		if err := gate.Allow(sub.Category, sub.ConsentLevel); err != nil {
			consentOnly = len(errs) == 0
			errs = append(errs, err.Error())
		}
	}

	if sub.Timestamp != nil {
		if sub.Timestamp.After(now.Add(maxFutureSkew)) {
			errs = append(errs, "timestamp is more than 1 minute in the future")
		} else if sub.Timestamp.Before(now.Add(-maxAge)) {
			errs = append(errs, "timestamp is older than 24 hours")
		}
	}

	return Result{
		Valid:            len(errs) == 0,
		Errors:           errs,
		ConsentViolation: consentOnly && len(errs) == 1,
	}
}

func validateAction(action string) []string {
	var errs []string
	if strings.TrimSpace(action) == "" {
		return append(errs, "action is required")
	}
	if strings.ContainsAny(action, markupChars) {
		errs = append(errs, "action contains markup characters")
	}
	lower := strings.ToLower(action)
	for _, prefix := range schemePrefixes {
		if strings.Contains(lower, prefix) {
			errs = append(errs, "action contains a forbidden scheme: "+prefix)
		}
	}
	return errs
}

func validatePage(page *models.PageContext) []string {
	if page == nil {
		return []string{"page context is required"}
	}
	var errs []string
	if page.Path == "" {
		errs = append(errs, "page.path is required")
	}
	if page.Title == "" {
		errs = append(errs, "page.title is required")
	}
	if page.URL == "" {
		errs = append(errs, "page.url is required")
	}
	return errs
}

func validateUser(user *models.UserContext) []string {
	if user == nil {
		return []string{"user context is required"}
	}
	var errs []string
	if !user.DeviceType.IsValid() {
		errs = append(errs, fmt.Sprintf("unknown device type: %q", user.DeviceType))
	}
	if user.UserAgent == "" {
		errs = append(errs, "user.userAgent is required")
	}
	if user.Timezone == "" {
		errs = append(errs, "user.timezone is required")
	}
	if user.Language == "" {
		errs = append(errs, "user.language is required")
	}
	return errs
}
