// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/zonkeynet/shipwatch/internal/models"
)

// DefaultConfigPaths lists where config files are searched, in priority
// order. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/shipwatch/config.yaml",
	"/etc/shipwatch/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			URL:              "",
			Dialect:          "relay",
			APIKey:           "",
			MessageTypes:     nil, // all message types
			MMSIFilter:       nil,
			HandshakeTimeout: 10 * time.Second,
			ReadTimeout:      60 * time.Second,
			PingInterval:     30 * time.Second,
			BackoffBase:      1 * time.Second,
			BackoffCap:       30 * time.Second, // 30x base
			BreakerThreshold: 8,
		},
		Watch: WatchConfig{
			// European waters by default, matching the map's start view.
			Area:          models.AreaOfInterest{South: 30.0, West: -15.0, North: 65.0, East: 40.0},
			MoveThreshold: 0.2,
			Categories:    []string{"military", "israeli", "potential_arms"},
			Query:         "",
		},
		Projector: ProjectorConfig{
			Interval: 1500 * time.Millisecond,
		},
		NATS: NATSConfig{
			Enabled: false,
			URL:     "nats://127.0.0.1:4222",
			Subject: "shipwatch.vessels",
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              4326,
			Timeout:           30 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     300,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values
//  2. Config file: optional YAML (if present)
//  3. Environment variables: highest priority
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when supplied via environment variables.
var sliceConfigPaths = []string{
	"upstream.message_types",
	"upstream.mmsi_filter",
	"watch.categories",
	"server.cors_origins",
}

// processSliceFields converts comma-separated env strings to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are skipped so that unrelated environment noise never
// pollutes the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Upstream feed
		"upstream_url":               "upstream.url",
		"upstream_dialect":           "upstream.dialect",
		"upstream_api_key":           "upstream.api_key",
		"upstream_message_types":     "upstream.message_types",
		"upstream_mmsi_filter":       "upstream.mmsi_filter",
		"upstream_handshake_timeout": "upstream.handshake_timeout",
		"upstream_read_timeout":      "upstream.read_timeout",
		"upstream_ping_interval":     "upstream.ping_interval",
		"upstream_backoff_base":      "upstream.backoff_base",
		"upstream_backoff_cap":       "upstream.backoff_cap",
		"upstream_breaker_threshold": "upstream.breaker_threshold",

		// Watch area and filter defaults
		"watch_south":          "watch.area.south",
		"watch_west":           "watch.area.west",
		"watch_north":          "watch.area.north",
		"watch_east":           "watch.area.east",
		"watch_move_threshold": "watch.move_threshold",
		"watch_categories":     "watch.categories",
		"watch_query":          "watch.query",

		// Projection cadence
		"projector_interval": "projector.interval",

		// NATS event publishing
		"nats_enabled": "nats.enabled",
		"nats_url":     "nats.url",
		"nats_subject": "nats.subject",

		// HTTP server
		"http_host":           "server.host",
		"http_port":           "server.port",
		"http_timeout":        "server.timeout",
		"cors_origins":        "server.cors_origins",
		"rate_limit_requests": "server.rate_limit_reqs",
		"rate_limit_window":   "server.rate_limit_window",
		"disable_rate_limit":  "server.rate_limit_disabled",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
