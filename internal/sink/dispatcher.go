package sink

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"beacon/internal/events/models"
)

// Dispatcher fans an accepted event out to the configured provider sinks.
// Failures are isolated per sink and logged; they never propagate to the
// caller, and the bounded timeout keeps a slow provider off the response path.
type Dispatcher struct {
	analytics AnalyticsSink
	errors    ErrorSink
	logger    *slog.Logger
	timeout   time.Duration
	async     bool
	wg        sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTimeout bounds the combined sink fan-out for one event.
func WithTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithAsync detaches delivery from the request so the response never waits
// on a provider. Close() drains in-flight deliveries on shutdown.
func WithAsync() DispatcherOption {
	return func(d *Dispatcher) {
		d.async = true
	}
}

// NewDispatcher wires the provider sinks. Nil sinks are skipped, so a
// deployment without an upstream provider still accepts events.
func NewDispatcher(analytics AnalyticsSink, errSink ErrorSink, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		analytics: analytics,
		errors:    errSink,
		logger:    logger,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch delivers the event to every applicable sink, best-effort.
func (d *Dispatcher) Dispatch(event *models.AnalyticsEvent) {
	if d.async {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.deliver(event)
		}()
		return
	}
	d.deliver(event)
}

// Close waits for in-flight async deliveries to finish.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(event *models.AnalyticsEvent) {
	// Detached context: the originating request may already be done.
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if d.analytics != nil {
		g.Go(func() error {
			if err := d.analytics.Send(ctx, string(event.Category), analyticsParams(event)); err != nil {
				d.logger.Warn("analytics sink delivery failed",
					"event_id", event.ID.String(),
					"category", event.Category,
					"error", err,
				)
			}
			return nil
		})
	}
	if d.errors != nil && event.Category == models.CategoryError {
		g.Go(func() error {
			tags := map[string]string{
				"category":    string(event.Category),
				"page_path":   event.Page.Path,
				"device_type": string(event.User.DeviceType),
			}
			extra := map[string]any{
				"action": event.Action,
				"stack":  event.Label,
			}
			if err := d.errors.Capture(ctx, event.Action, tags, extra); err != nil {
				d.logger.Warn("error sink delivery failed",
					"event_id", event.ID.String(),
					"error", err,
				)
			}
			return nil
		})
	}

	// Sinks never return errors upward; Wait only joins the goroutines.
	_ = g.Wait()
}

// analyticsParams builds the privacy-filtered parameter map handed to the
// analytics provider. Anonymized events carry no user identifier.
func analyticsParams(event *models.AnalyticsEvent) map[string]any {
	params := map[string]any{
		"action":        event.Action,
		"page_path":     event.Page.Path,
		"page_title":    event.Page.Title,
		"device_type":   string(event.User.DeviceType),
		"language":      event.User.Language,
		"consent_level": string(event.ConsentLevel),
		"anonymized":    event.Anonymized,
		"client_id":     event.ClientID,
	}
	if event.Label != "" {
		params["label"] = event.Label
	}
	if event.Value != nil {
		params["value"] = *event.Value
	}
	if !event.Anonymized {
		if event.UserID != "" {
			params["user_id"] = event.UserID
		}
		params["session_id"] = event.SessionID.String()
	}
	return params
}
