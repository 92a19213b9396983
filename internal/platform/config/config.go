package config

import (
	"os"
	"time"
)

// Server captures process-level configuration for the telemetry pipeline.
type Server struct {
	Addr string

	// ConsentTTL controls how long a consent record stays valid before the
	// visitor is treated as a first contact again.
	ConsentTTL time.Duration

	// RedisAddr selects the redis-backed storage collaborator when set.
	// Empty means the in-memory store (single instance deployments).
	RedisAddr string

	// AnalyticsSinkURL and ErrorSinkURL point at the upstream providers.
	// Empty values disable the respective sink (events are still accepted).
	AnalyticsSinkURL string
	ErrorSinkURL     string

	// SinkTimeout bounds every call to an upstream provider so a slow sink
	// cannot stall the response path.
	SinkTimeout time.Duration
}

const (
	defaultAddr        = ":8080"
	defaultConsentTTL  = 365 * 24 * time.Hour
	defaultSinkTimeout = 2 * time.Second
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:             defaultAddr,
		ConsentTTL:       defaultConsentTTL,
		SinkTimeout:      defaultSinkTimeout,
		RedisAddr:        os.Getenv("BEACON_REDIS_ADDR"),
		AnalyticsSinkURL: os.Getenv("BEACON_ANALYTICS_SINK_URL"),
		ErrorSinkURL:     os.Getenv("BEACON_ERROR_SINK_URL"),
	}

	if addr := os.Getenv("BEACON_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if raw := os.Getenv("BEACON_CONSENT_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.ConsentTTL = d
		}
	}
	if raw := os.Getenv("BEACON_SINK_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.SinkTimeout = d
		}
	}

	return cfg
}
