// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

// Package config provides layered configuration for ShipWatch using
// Koanf v2: built-in defaults, an optional YAML config file, and
// environment variables, in ascending priority.
package config

import (
	"time"

	"github.com/zonkeynet/shipwatch/internal/models"
)

// Config holds all application configuration.
//
// Thread safety: Config is immutable after Load() and safe for concurrent
// read access from multiple goroutines.
type Config struct {
	Upstream  UpstreamConfig  `koanf:"upstream"`
	Watch     WatchConfig     `koanf:"watch"`
	Projector ProjectorConfig `koanf:"projector"`
	NATS      NATSConfig      `koanf:"nats"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// UpstreamConfig describes the live AIS feed connection.
//
// Two upstream dialects exist:
//   - "relay": a worker relay delivering pre-normalized
//     status/error/vessel frames; subscribe payload is {"type":"subscribe"}.
//   - "aisstream": raw aisstream.io frames with nested Message/MetaData
//     substructures; subscribe payload carries APIKey and BoundingBoxes.
//
// Environment variables: UPSTREAM_URL, UPSTREAM_DIALECT, UPSTREAM_API_KEY.
type UpstreamConfig struct {
	// URL is the websocket endpoint of the upstream feed.
	URL string `koanf:"url" validate:"required"`

	// Dialect selects the frame normalization and subscribe payload
	// variant: "relay" or "aisstream".
	Dialect string `koanf:"dialect" validate:"oneof=relay aisstream"`

	// APIKey authenticates the subscribe request (aisstream dialect only).
	APIKey string `koanf:"api_key"`

	// MessageTypes optionally restricts the subscription to specific
	// upstream message types (e.g. PositionReport, StaticDataReport).
	MessageTypes []string `koanf:"message_types"`

	// MMSIFilter optionally restricts the subscription to specific MMSIs.
	MMSIFilter []string `koanf:"mmsi_filter"`

	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout time.Duration `koanf:"handshake_timeout" validate:"min=0"`

	// ReadTimeout is the per-message read deadline; a silent connection
	// beyond this is treated as dead.
	ReadTimeout time.Duration `koanf:"read_timeout" validate:"min=0"`

	// PingInterval is the keepalive ping cadence.
	PingInterval time.Duration `koanf:"ping_interval" validate:"min=0"`

	// BackoffBase is the initial reconnect delay after a failure.
	BackoffBase time.Duration `koanf:"backoff_base" validate:"min=0"`

	// BackoffCap is the maximum reconnect delay (30x base by default).
	BackoffCap time.Duration `koanf:"backoff_cap" validate:"min=0"`

	// BreakerThreshold is the number of consecutive dial failures that
	// trip the connect circuit breaker.
	BreakerThreshold uint32 `koanf:"breaker_threshold"`
}

// WatchConfig describes the initial area of interest and filter defaults.
type WatchConfig struct {
	// Area is the startup bounding box. Defaults to a European view,
	// matching the default map viewport.
	Area models.AreaOfInterest `koanf:"area"`

	// MoveThreshold is the per-bound viewport movement, in degrees,
	// beyond which the subscription is reopened for the new area.
	MoveThreshold float64 `koanf:"move_threshold" validate:"gt=0"`

	// Categories is the startup set of wanted watch categories.
	Categories []string `koanf:"categories"`

	// Query is the startup free-text filter.
	Query string `koanf:"query"`
}

// ProjectorConfig describes the view projection cadence.
type ProjectorConfig struct {
	// Interval is the fixed snapshot cadence. Rendering work is bounded
	// by this regardless of upstream message rate.
	Interval time.Duration `koanf:"interval" validate:"min=100ms"`
}

// NATSConfig describes the optional vessel event publisher.
type NATSConfig struct {
	// Enabled turns on publishing of classified vessel upserts.
	Enabled bool `koanf:"enabled"`

	// URL is the NATS server address.
	URL string `koanf:"url"`

	// Subject is the publish subject for vessel events.
	Subject string `koanf:"subject"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"min=0"`

	// CORSOrigins lists allowed cross-origin callers for the UI.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs / RateLimitWindow configure per-IP request limiting.
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"min=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// WantedCategories converts the configured category names into the typed
// filter set, silently dropping unknown names.
func (w WatchConfig) WantedCategories() []models.Category {
	out := make([]models.Category, 0, len(w.Categories))
	for _, name := range w.Categories {
		if c := models.ParseCategory(name); c != models.CategoryNone {
			out = append(out, c)
		}
	}
	return out
}

// Filter builds the startup FilterSelection from the watch settings.
func (w WatchConfig) Filter() models.FilterSelection {
	return models.FilterSelection{Categories: w.WantedCategories(), Query: w.Query}
}
