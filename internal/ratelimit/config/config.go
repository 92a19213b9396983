// Package config holds the per-class rate limit ceilings.
package config

import (
	"os"
	"strconv"
	"time"

	"beacon/internal/ratelimit/models"
)

// Limit defines the ceiling for one endpoint class.
type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
}

// Config maps endpoint classes to their ceilings.
type Config struct {
	Limits map[models.EndpointClass]Limit
}

// Default returns the stock ceilings: writes are scarce, telemetry is chatty.
func Default() *Config {
	return &Config{
		Limits: map[models.EndpointClass]Limit{
			models.ClassMutation:  {RequestsPerWindow: 10, Window: time.Minute},
			models.ClassTelemetry: {RequestsPerWindow: 100, Window: time.Minute},
			models.ClassRead:      {RequestsPerWindow: 100, Window: time.Minute},
		},
	}
}

// FromEnv returns the defaults with any per-class overrides applied.
// Overrides are requests per minute: BEACON_RATELIMIT_MUTATION,
// BEACON_RATELIMIT_TELEMETRY, BEACON_RATELIMIT_READ.
func FromEnv() *Config {
	cfg := Default()
	override(cfg, models.ClassMutation, "BEACON_RATELIMIT_MUTATION")
	override(cfg, models.ClassTelemetry, "BEACON_RATELIMIT_TELEMETRY")
	override(cfg, models.ClassRead, "BEACON_RATELIMIT_READ")
	return cfg
}

// LimitFor returns the ceiling for an endpoint class, falling back to the
// read class for anything unknown.
func (c *Config) LimitFor(class models.EndpointClass) Limit {
	if limit, ok := c.Limits[class]; ok {
		return limit
	}
	return c.Limits[models.ClassRead]
}

func override(cfg *Config, class models.EndpointClass, env string) {
	raw := os.Getenv(env)
	if raw == "" {
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return
	}
	cfg.Limits[class] = Limit{RequestsPerWindow: n, Window: time.Minute}
}
