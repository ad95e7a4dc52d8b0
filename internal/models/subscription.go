// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package models

// SubscriptionState is the lifecycle state of the upstream connection.
// Transitions are driven exclusively by the subscription controller.
type SubscriptionState int

const (
	// StateDisconnected is the initial state before the first connect.
	StateDisconnected SubscriptionState = iota

	// StateConnecting means a dial is in flight.
	StateConnecting

	// StateSubscribed means the connection is established and the
	// subscribe payload for the current area has been sent.
	StateSubscribed

	// StateBackoff means the last connection failed and a reconnect is
	// scheduled after the current backoff delay.
	StateBackoff
)

// String implements fmt.Stringer for logs, metrics labels and status text.
func (s SubscriptionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}
