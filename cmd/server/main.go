// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

// Package main is the entry point for the ShipWatch server.
//
// ShipWatch ingests a live AIS vessel feed over websocket, classifies
// vessels into watch categories (military, Israeli-flagged, potential
// arms carriers), reconciles them into an in-memory latest-state store
// and serves the result to map clients over a websocket hub and a REST
// snapshot API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, YAML file,
//     environment variables)
//  2. Vessel store: in-memory keyed latest-state store
//  3. WebSocket hub: real-time vessel and status broadcasts
//  4. NATS publisher (optional): classified vessel upsert events
//  5. Stream controller: upstream subscription with reconnect backoff
//     and a connect circuit breaker
//  6. View projector: fixed-cadence filtered snapshots to the hub
//  7. HTTP server: REST API, health probes, Prometheus metrics, /ws
//
// Everything runs under a Suture supervisor tree with three layers
// (ingest, messaging, api) for failure isolation.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (config.yaml),
// built-in defaults.
//
// Minimal relay setup:
//
//	export UPSTREAM_URL=wss://relay.example.org/stream
//	./shipwatch
//
// Direct aisstream.io setup:
//
//	export UPSTREAM_URL=wss://stream.aisstream.io/v0/stream
//	export UPSTREAM_DIALECT=aisstream
//	export UPSTREAM_API_KEY=your-api-key
//	./shipwatch
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the HTTP
// server drains in-flight requests, the hub closes its clients and the
// upstream connection is torn down.
//
// # Port 4326
//
// The default port 4326 references EPSG:4326 (WGS 84), the coordinate
// reference system AIS positions are reported in.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zonkeynet/shipwatch/internal/api"
	"github.com/zonkeynet/shipwatch/internal/config"
	"github.com/zonkeynet/shipwatch/internal/events"
	"github.com/zonkeynet/shipwatch/internal/logging"
	"github.com/zonkeynet/shipwatch/internal/projector"
	"github.com/zonkeynet/shipwatch/internal/store"
	"github.com/zonkeynet/shipwatch/internal/stream"
	"github.com/zonkeynet/shipwatch/internal/supervisor"
	"github.com/zonkeynet/shipwatch/internal/supervisor/services"
	ws "github.com/zonkeynet/shipwatch/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("upstream_url", cfg.Upstream.URL).
		Str("dialect", cfg.Upstream.Dialect).
		Str("area", cfg.Watch.Area.String()).
		Msg("Starting ShipWatch with supervisor tree")

	st := store.New()
	wsHub := ws.NewHub()

	// Vessel event publisher: NATS when enabled, no-op otherwise.
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.Enabled {
		natsPub, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create NATS publisher")
		}
		publisher = natsPub
		logging.Info().
			Str("url", cfg.NATS.URL).
			Str("subject", cfg.NATS.Subject).
			Msg("NATS vessel event publishing enabled")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event publisher")
		}
	}()

	dialect, err := stream.NewDialect(cfg.Upstream.Dialect, cfg.Upstream.APIKey)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create upstream dialect")
	}

	pipeline := stream.NewPipeline(dialect, st, publisher, wsHub.BroadcastStatus)
	controller := stream.NewController(cfg.Upstream, cfg.Watch.MoveThreshold, cfg.Watch.Area, dialect, pipeline, wsHub.BroadcastStatus)
	viewProjector := projector.New(st, wsHub, cfg.Projector.Interval, cfg.Watch.Filter())

	handler := api.NewHandler(st, controller, viewProjector, wsHub, cfg.Server.CORSOrigins)
	mw := api.NewMiddleware(cfg.Server.CORSOrigins, cfg.Server.RateLimitReqs, cfg.Server.RateLimitWindow, cfg.Server.RateLimitDisabled)
	router := api.NewRouter(handler, mw)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	tree.AddIngestService(controller)
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddMessagingService(viewProjector)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished).
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
