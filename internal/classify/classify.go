// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

// Package classify implements the pure vessel classification function.
//
// Classification assigns each vessel to at most one watch category in a
// fixed priority order. The ordering matters: a vessel can satisfy several
// predicates at once (a military vessel under the IL flag, say), and the
// first matching rule wins.
package classify

import (
	"regexp"
	"strings"

	"github.com/zonkeynet/shipwatch/internal/models"
)

// militaryShipType is the AIS ship type code for military operations.
const militaryShipType = 35

// israelMIDPrefix is the Maritime Identification Digits prefix encoding
// an Israel-affiliated flag state in the MMSI.
const israelMIDPrefix = "428"

// potentialArmsPattern matches vehicle-carrier, PCTC, RO-RO, heavy-lift,
// project cargo and multi-purpose/MPP descriptive text.
var potentialArmsPattern = regexp.MustCompile(`(?i)vehicle|pctc|ro-?ro|heavy.?lift|project|multi.?purpose|\bmpp\b`)

// Classify assigns a vessel to a watch category, or CategoryNone.
// It is pure and deterministic: no side effects, no external state.
//
// Rules in priority order:
//  1. military: AIS ship type 35
//  2. israeli: flag "IL" (case-insensitive) or MMSI prefix 428
//  3. potential_arms: descriptive text matches the carrier pattern
//
// A nil ShipType never matches rule 1; absent text fields are treated as
// empty strings by rule 3.
func Classify(v *models.VesselRecord) models.Category {
	if v == nil {
		return models.CategoryNone
	}
	if v.ShipType != nil && *v.ShipType == militaryShipType {
		return models.CategoryMilitary
	}
	if strings.EqualFold(v.Flag, "IL") || strings.HasPrefix(v.MMSI, israelMIDPrefix) {
		return models.CategoryIsraeli
	}
	if potentialArmsPattern.MatchString(v.DescriptiveText()) {
		return models.CategoryPotentialArms
	}
	return models.CategoryNone
}
