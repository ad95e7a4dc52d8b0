// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

// Package stream maintains the upstream AIS WebSocket subscription and
// turns raw feed frames into classified vessel records.
//
// The package is split into three cooperating pieces:
//
//   - Dialect: speaks one upstream feed format. The relay dialect handles
//     pre-normalized vessel frames from a relay worker; the aisstream
//     dialect speaks the aisstream.io envelope directly.
//   - Pipeline: routes decoded frames, classifies vessels and upserts
//     them into the store. Malformed frames are swallowed, never fatal.
//   - Controller: owns the connection state machine (disconnected,
//     connecting, subscribed, backoff), reconnecting with exponential
//     backoff and reopening the subscription when the watched area moves
//     beyond the configured threshold.
package stream
