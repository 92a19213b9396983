package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "beacon/pkg/domain-errors"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, http.StatusCreated, map[string]string{"eventId": "abc"})

	env := decode(t, rec)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.True(t, env.Success)
	assert.False(t, env.Timestamp.IsZero())
	assert.Empty(t, env.Error)
}

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", dErrors.New(dErrors.CodeValidation, "bad action"), http.StatusBadRequest, "validation_failed"},
		{"missing consent", dErrors.New(dErrors.CodeMissingConsent, "marketing required"), http.StatusForbidden, "missing_consent"},
		{"rate limited", dErrors.New(dErrors.CodeRateLimited, "slow down"), http.StatusTooManyRequests, "rate_limited"},
		{"empty batch", dErrors.New(dErrors.CodeEmptyBatch, ""), http.StatusBadRequest, "empty_batch"},
		{"batch too large", dErrors.New(dErrors.CodeBatchSizeExceeded, ""), http.StatusBadRequest, "batch_size_exceeded"},
		{"malformed payload", dErrors.New(dErrors.CodeMalformedPayload, "invalid json"), http.StatusBadRequest, "malformed_payload"},
		{"unknown collapses to 500", assert.AnError, http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, tt.err)

			env := decode(t, rec)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, env.Error)
			assert.False(t, env.Success)
		})
	}
}
