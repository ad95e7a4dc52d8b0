// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

// Package api provides the HTTP surface of ShipWatch: a Chi router
// exposing vessel snapshots, subscription controls (area, filter,
// reconnect), health probes, Prometheus metrics and the websocket
// upgrade endpoint for live map clients.
//
// Middleware comes from the Chi ecosystem: go-chi/cors for CORS,
// go-chi/httprate for per-IP rate limiting, and chi/middleware for
// request IDs, real-IP resolution and panic recovery.
package api
