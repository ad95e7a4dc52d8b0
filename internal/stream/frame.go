// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package stream

import "github.com/zonkeynet/shipwatch/internal/models"

// FrameKind identifies what a decoded upstream frame carries.
type FrameKind int

const (
	// FrameIgnored marks a frame that parsed but carries nothing we use.
	FrameIgnored FrameKind = iota

	// FrameVessel carries a normalized vessel record.
	FrameVessel

	// FrameStatus carries informational status text from the feed.
	FrameStatus

	// FrameError carries an error reported by the feed. The connection
	// stays up; error frames are surfaced to the status line only.
	FrameError
)

// String returns the frame kind label used in logs and metrics.
func (k FrameKind) String() string {
	switch k {
	case FrameVessel:
		return "vessel"
	case FrameStatus:
		return "status"
	case FrameError:
		return "error"
	default:
		return "ignored"
	}
}

// Frame is one decoded upstream message.
type Frame struct {
	Kind FrameKind

	// Vessel is set when Kind is FrameVessel. The record is normalized
	// but not yet classified.
	Vessel *models.VesselRecord

	// Text is set for status and error frames.
	Text string
}
