// Package sanitizer turns a validated submission into a clean AnalyticsEvent.
// All privacy rules live here as declarative tables (sensitive keys,
// redaction patterns, truncation lengths) so they can be audited in one place.
package sanitizer

import (
	"regexp"
	"strings"
	"time"

	"github.com/mssola/useragent"

	consent "beacon/internal/consent/models"
	"beacon/internal/events/models"
	"beacon/internal/platform/privacy"
	id "beacon/pkg/domain"
)

// Truncation lengths per field class.
const (
	MaxGenericLength    = 500
	MaxStackTraceLength = 2000
	MaxUserAgentLength  = 200
)

// sensitiveKeys are removed from free-form custom-data blobs, never from the
// typed fields that legitimately carry them. Keys are compared after
// normalization (lowercased, separators stripped).
var sensitiveKeys = map[string]bool{
	"email":         true,
	"password":      true,
	"secret":        true,
	"token":         true,
	"accesstoken":   true,
	"refreshtoken":  true,
	"apikey":        true,
	"authorization": true,
	"auth":          true,
	"sessionid":     true,
	"userid":        true,
	"ip":            true,
	"ipaddress":     true,
	"useragent":     true,
	"referer":       true,
	"referrer":      true,
}

// stackTraceKeys get the longer truncation budget inside custom data.
var stackTraceKeys = map[string]bool{
	"stack":      true,
	"stacktrace": true,
}

// Redaction patterns for token-like substrings inside URL/string fields.
var (
	queryTokenPattern = regexp.MustCompile(`(?i)([?&](?:token|api[_-]?key|access[_-]?token|auth)=)[^&#\s]+`)
	bearerPattern     = regexp.MustCompile(`(?i)\bbearer\s+[a-z0-9\-._~+/]+=*`)
)

const redactedPlaceholder = "[REDACTED]"

// FillDefaults completes a submission from the request context before
// validation: missing timestamp, session ID, and page/user sub-objects.
// It performs no PII work; that happens in Sanitize on validated events only.
func FillDefaults(sub *models.Submission, reqCtx models.RequestContext, now time.Time) {
	if sub.Timestamp == nil {
		ts := now
		sub.Timestamp = &ts
	}
	if strings.TrimSpace(sub.SessionID) == "" {
		if reqCtx.SessionID != "" {
			sub.SessionID = reqCtx.SessionID
		} else {
			sub.SessionID = id.NewSessionID().String()
		}
	}
	if sub.Page == nil {
		sub.Page = &models.PageContext{
			Path:     defaultString(reqCtx.Path, "/"),
			Title:    "unknown",
			URL:      defaultString(reqCtx.Path, "/"),
			Referrer: reqCtx.Referrer,
		}
	}
	if sub.User == nil {
		sub.User = userFromRequest(reqCtx)
	}
	if sub.User.UserAgent == "" {
		sub.User.UserAgent = reqCtx.UserAgent
	}
	if sub.User.Language == "" {
		sub.User.Language = defaultString(primaryLanguage(reqCtx.Language), "unknown")
	}
	if sub.User.Timezone == "" {
		sub.User.Timezone = "UTC"
	}
	if sub.User.DeviceType == "" {
		sub.User.DeviceType = deviceTypeFromUA(sub.User.UserAgent)
	}
}

// Sanitize produces the clean, immutable AnalyticsEvent from a validated
// submission: sensitive custom-data keys removed, token-like substrings
// redacted, strings truncated, anonymization flag computed, and the client
// identifier derived without storing the raw IP.
func Sanitize(sub *models.Submission, reqCtx models.RequestContext, now time.Time) *models.AnalyticsEvent {
	ts := now
	if sub.Timestamp != nil {
		ts = *sub.Timestamp
	}

	sessionID, err := id.ParseSessionID(sub.SessionID)
	if err != nil {
		sessionID = id.NewSessionID()
	}

	event := &models.AnalyticsEvent{
		ID:           id.NewEventID(),
		Timestamp:    ts,
		SessionID:    sessionID,
		UserID:       truncate(sub.UserID, MaxGenericLength),
		Category:     sub.Category,
		Action:       truncate(redact(sub.Action), MaxGenericLength),
		Label:        truncate(redact(sub.Label), labelBudget(sub.Category)),
		Value:        sub.Value,
		ConsentLevel: sub.ConsentLevel,
		Anonymized:   computeAnonymized(sub),
		ClientID:     privacy.HashClientID(reqCtx.ClientIP, sub.SessionID),
		CustomData:   scrubCustomData(sub.CustomData),
	}

	if sub.Page != nil {
		event.Page = models.PageContext{
			Path:     truncate(sub.Page.Path, MaxGenericLength),
			Title:    truncate(sub.Page.Title, MaxGenericLength),
			URL:      truncate(redact(sub.Page.URL), MaxGenericLength),
			Referrer: truncate(redact(sub.Page.Referrer), MaxGenericLength),
			Query:    truncate(redact(sub.Page.Query), MaxGenericLength),
			Hash:     truncate(sub.Page.Hash, MaxGenericLength),
			LoadTime: sub.Page.LoadTime,
		}
	}
	if sub.User != nil {
		event.User = *sub.User
		event.User.UserAgent = truncate(sub.User.UserAgent, MaxUserAgentLength)
	}

	return event
}

// labelBudget keeps room for stack traces on error events.
func labelBudget(category models.Category) int {
	if category == models.CategoryError {
		return MaxStackTraceLength
	}
	return MaxGenericLength
}

// computeAnonymized forces anonymization below analytics consent and for
// error payloads; otherwise the caller-supplied value (default false) wins.
func computeAnonymized(sub *models.Submission) bool {
	if sub.ConsentLevel == consent.LevelNone || sub.ConsentLevel == consent.LevelEssential {
		return true
	}
	if sub.Category == models.CategoryError {
		return true
	}
	if sub.Anonymized != nil {
		return *sub.Anonymized
	}
	return false
}

// scrubCustomData removes sensitive keys and sanitizes string values,
// recursing into nested maps. Returns nil for empty results so accepted
// events stay compact.
func scrubCustomData(data map[string]any) map[string]any {
	if len(data) == 0 {
		return nil
	}
	clean := make(map[string]any, len(data))
	for key, value := range data {
		if sensitiveKeys[normalizeKey(key)] {
			continue
		}
		switch v := value.(type) {
		case string:
			budget := MaxGenericLength
			if stackTraceKeys[normalizeKey(key)] {
				budget = MaxStackTraceLength
			}
			clean[key] = truncate(redact(v), budget)
		case map[string]any:
			if nested := scrubCustomData(v); nested != nil {
				clean[key] = nested
			}
		default:
			clean[key] = value
		}
	}
	if len(clean) == 0 {
		return nil
	}
	return clean
}

func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	return key
}

// redact masks token-like substrings using the fixed pattern table.
func redact(s string) string {
	if s == "" {
		return s
	}
	s = queryTokenPattern.ReplaceAllString(s, "${1}"+redactedPlaceholder)
	s = bearerPattern.ReplaceAllString(s, "Bearer "+redactedPlaceholder)
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func userFromRequest(reqCtx models.RequestContext) *models.UserContext {
	return &models.UserContext{
		DeviceType: deviceTypeFromUA(reqCtx.UserAgent),
		Browser:    browserFromUA(reqCtx.UserAgent),
		Platform:   platformFromUA(reqCtx.UserAgent),
		UserAgent:  reqCtx.UserAgent,
		Timezone:   "UTC",
		Language:   defaultString(primaryLanguage(reqCtx.Language), "unknown"),
	}
}

func deviceTypeFromUA(rawUA string) models.DeviceType {
	if rawUA == "" {
		return models.DeviceUnknown
	}
	ua := useragent.New(rawUA)
	if ua.Mobile() {
		if strings.Contains(strings.ToLower(rawUA), "tablet") || strings.Contains(rawUA, "iPad") {
			return models.DeviceTablet
		}
		return models.DeviceMobile
	}
	if strings.Contains(rawUA, "iPad") {
		return models.DeviceTablet
	}
	return models.DeviceDesktop
}

func browserFromUA(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, _ := ua.Browser()
	return strings.ToLower(name)
}

func platformFromUA(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	return strings.ToLower(useragent.New(rawUA).OS())
}

// primaryLanguage extracts the first tag from an Accept-Language header.
func primaryLanguage(header string) string {
	if header == "" {
		return ""
	}
	first, _, _ := strings.Cut(header, ",")
	lang, _, _ := strings.Cut(strings.TrimSpace(first), ";")
	return lang
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
