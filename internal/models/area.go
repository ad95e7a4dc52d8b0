// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package models

import (
	"fmt"
	"math"
)

// AreaOfInterest is the rectangular lat/lon region that scopes the live
// subscription. Bounds are plain degrees; west/east are treated as two
// independent numeric bounds with no antimeridian correction.
type AreaOfInterest struct {
	South float64 `json:"south" koanf:"south" validate:"min=-90,max=90"`
	West  float64 `json:"west"  koanf:"west"  validate:"min=-180,max=180"`
	North float64 `json:"north" koanf:"north" validate:"min=-90,max=90"`
	East  float64 `json:"east"  koanf:"east"  validate:"min=-180,max=180"`
}

// Validate checks the south<=north invariant. West/east intentionally
// have no ordering constraint.
func (a AreaOfInterest) Validate() error {
	if a.South > a.North {
		return fmt.Errorf("invalid area: south %.4f exceeds north %.4f", a.South, a.North)
	}
	return nil
}

// MovedBeyond reports whether any single bound differs from prev by more
// than threshold degrees. The comparison is per-bound, not a geodesic
// distance: a viewport pan that moves only the east edge far enough still
// requires a resubscription.
func (a AreaOfInterest) MovedBeyond(prev AreaOfInterest, threshold float64) bool {
	return math.Abs(a.South-prev.South) > threshold ||
		math.Abs(a.West-prev.West) > threshold ||
		math.Abs(a.North-prev.North) > threshold ||
		math.Abs(a.East-prev.East) > threshold
}

// String renders the area as "S,W,N,E" for logs and status text.
func (a AreaOfInterest) String() string {
	return fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", a.South, a.West, a.North, a.East)
}
