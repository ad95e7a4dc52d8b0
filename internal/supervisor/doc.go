// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

// Package supervisor provides Suture-based process supervision for
// ShipWatch.
//
// The tree is organized into three layers:
//   - ingest: the upstream stream controller
//   - messaging: the websocket hub and the view projector
//   - api: the HTTP server
//
// This structure provides failure isolation: a crash in the ingest layer
// restarts the upstream connection without dropping connected websocket
// clients, and the API keeps serving store snapshots throughout.
package supervisor
