// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package models

import "strings"

// Category is the watch bucket a vessel is classified into.
// A vessel belongs to at most one category; CategoryNone means the vessel
// is outside the watch scope and must not be stored.
type Category string

const (
	// CategoryMilitary covers vessels reporting AIS ship type 35
	// (military operations).
	CategoryMilitary Category = "military"

	// CategoryIsraeli covers vessels flying the IL flag or broadcasting
	// an MMSI with the 428 Maritime Identification Digits prefix.
	CategoryIsraeli Category = "israeli"

	// CategoryPotentialArms covers vehicle carriers, RO-RO, heavy-lift,
	// project cargo and multi-purpose vessels matched by descriptive text.
	CategoryPotentialArms Category = "potential_arms"

	// CategoryNone marks an unclassified vessel.
	CategoryNone Category = ""
)

// AllCategories lists every watch category in classification priority order.
var AllCategories = []Category{CategoryMilitary, CategoryIsraeli, CategoryPotentialArms}

// ParseCategory returns the Category for a wire string, or CategoryNone
// when the string names no known category.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryMilitary:
		return CategoryMilitary
	case CategoryIsraeli:
		return CategoryIsraeli
	case CategoryPotentialArms:
		return CategoryPotentialArms
	default:
		return CategoryNone
	}
}

// VesselRecord is the canonical normalized shape of one vessel's latest
// known state. Providers resend full state, so records are replaced
// wholesale on update (latest wins) rather than merged field by field.
//
// Identity fields follow a fixed key preference: MMSI, then IMO, then Name.
// A record with a position but no identity (or vice versa) is still valid;
// a record with neither is discarded by the ingestion pipeline.
//
// Lat/Lon are pointers so that "position unknown" is distinguishable from
// coordinate (0, 0) in the Gulf of Guinea. The same applies to ShipType:
// an absent type code must never compare equal to a real one.
type VesselRecord struct {
	MMSI        string   `json:"mmsi,omitempty"`
	IMO         string   `json:"imo,omitempty"`
	Name        string   `json:"name,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Flag        string   `json:"flag,omitempty"`
	ShipType    *int     `json:"ais_shiptype,omitempty"`
	TypeText    string   `json:"type,omitempty"`
	CargoText   string   `json:"cargo,omitempty"`
	Destination string   `json:"destination,omitempty"`

	// Category is derived by the classifier during normalization and is
	// recomputed on every update; it is never persisted independently.
	Category Category `json:"category,omitempty"`
}

// HasPosition reports whether the record carries usable coordinates.
// Identity-only records are stored and classified but never rendered.
func (v *VesselRecord) HasPosition() bool {
	return v.Lat != nil && v.Lon != nil
}

// HasIdentity reports whether at least one identity field is present.
func (v *VesselRecord) HasIdentity() bool {
	return v.MMSI != "" || v.IMO != "" || v.Name != ""
}

// DescriptiveText returns the concatenated free-text fields used by the
// potential-arms text rule. Absent fields contribute an empty string.
func (v *VesselRecord) DescriptiveText() string {
	if v.CargoText == "" {
		return v.TypeText
	}
	return v.TypeText + " " + v.CargoText
}
