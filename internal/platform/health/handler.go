// Package health provides the HTTP health check endpoint.
package health

import (
	"encoding/json"
	"maps"
	"net/http"
	"sync"
	"time"
)

// CheckFunc is a function that checks the health of a dependency.
// It returns nil if healthy, or an error describing the issue.
type CheckFunc func() error

// Handler provides the health check endpoint.
type Handler struct {
	startTime time.Time

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// New creates a new health handler.
func New() *Handler {
	return &Handler{
		startTime: time.Now(),
		checks:    make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named dependency check.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// StatusResponse is the health endpoint response body.
type StatusResponse struct {
	Status        string            `json:"status"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks,omitempty"`
	Timestamp     string            `json:"timestamp"`
}

// HandleStatus reports overall health, returning 503 when any dependency is down.
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	maps.Copy(checks, h.checks)
	h.mu.RUnlock()

	response := StatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if len(checks) > 0 {
		response.Checks = make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(); err != nil {
				response.Checks[name] = "down: " + err.Error()
				response.Status = "degraded"
				status = http.StatusServiceUnavailable
			} else {
				response.Checks[name] = "up"
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
