package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultTimeout = 2 * time.Second

// HTTPAnalyticsSink posts events to a measurement-protocol style collector.
type HTTPAnalyticsSink struct {
	endpoint string
	client   *http.Client
}

// NewHTTPAnalyticsSink builds an analytics sink with a bounded per-call timeout.
func NewHTTPAnalyticsSink(endpoint string, timeout time.Duration) *HTTPAnalyticsSink {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPAnalyticsSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPAnalyticsSink) Send(ctx context.Context, eventName string, params map[string]any) error {
	body := map[string]any{
		"events": []map[string]any{
			{"name": eventName, "params": params},
		},
	}
	return s.post(ctx, body)
}

func (s *HTTPAnalyticsSink) post(ctx context.Context, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode sink payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build sink request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("analytics sink call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("analytics sink responded %d", resp.StatusCode)
	}
	return nil
}

// HTTPErrorSink posts error reports to an error-tracking collector.
type HTTPErrorSink struct {
	endpoint string
	client   *http.Client
}

// NewHTTPErrorSink builds an error sink with a bounded per-call timeout.
func NewHTTPErrorSink(endpoint string, timeout time.Duration) *HTTPErrorSink {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPErrorSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPErrorSink) Capture(ctx context.Context, message string, tags map[string]string, extra map[string]any) error {
	raw, err := json.Marshal(map[string]any{
		"message": message,
		"tags":    tags,
		"extra":   extra,
	})
	if err != nil {
		return fmt.Errorf("encode error report: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build error report: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sink call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("error sink responded %d", resp.StatusCode)
	}
	return nil
}
