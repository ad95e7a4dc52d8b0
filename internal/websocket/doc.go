// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

// Package websocket implements the client-facing WebSocket hub that
// delivers projected vessel snapshots and feed status text to connected
// map views.
package websocket
