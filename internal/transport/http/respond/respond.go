// Package respond centralizes the JSON response envelope so every endpoint
// answers with the same shape: {success, data|error, code?, message?, timestamp}.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	dErrors "beacon/pkg/domain-errors"
)

// Envelope is the uniform response body for all pipeline endpoints.
type Envelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OK writes a success envelope with the given status and payload.
func OK(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// Fail writes a failure envelope with an explicit status, code and message.
func Fail(w http.ResponseWriter, status int, code dErrors.Code, message string) {
	writeJSON(w, status, Envelope{
		Success:   false,
		Error:     string(code),
		Code:      string(code),
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// FailData writes a failure envelope that still carries a payload, for
// outcomes like whole-batch failures where the caller needs the per-item
// detail alongside the error code.
func FailData(w http.ResponseWriter, status int, code dErrors.Code, message string, data any) {
	writeJSON(w, status, Envelope{
		Success:   false,
		Data:      data,
		Error:     string(code),
		Code:      string(code),
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// Error translates a domain error into the envelope, mapping its code to an
// HTTP status. Unknown errors collapse to 500 without leaking internals.
func Error(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := ""
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}
	Fail(w, StatusFor(code), code, message)
}

// StatusFor maps domain error codes to HTTP status codes.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeValidation,
		dErrors.CodeEmptyBatch, dErrors.CodeBatchSizeExceeded, dErrors.CodeMalformedPayload:
		return http.StatusBadRequest
	case dErrors.CodeMissingConsent, dErrors.CodeInvalidConsent:
		return http.StatusForbidden
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// best-effort fallback; don't override status for the caller
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
