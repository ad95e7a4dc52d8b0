// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

// Package services contains suture.Service adapters for components whose
// lifecycle API does not already match Serve(ctx) error: the HTTP server
// and the websocket hub. The stream controller and the view projector
// implement suture.Service directly and need no wrapper.
package services
