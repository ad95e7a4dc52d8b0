// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package models

import "strings"

// FilterSelection is the UI-owned selection of wanted categories plus an
// optional free-text query. It is passed to the core by value and treated
// as read-only; the zero value matches nothing.
type FilterSelection struct {
	Categories []Category `json:"categories"`
	Query      string     `json:"q"`
}

// DefaultFilter wants every watch category with no text query.
func DefaultFilter() FilterSelection {
	return FilterSelection{Categories: append([]Category(nil), AllCategories...)}
}

// Wants reports whether the given category is in the wanted set.
func (f FilterSelection) Wants(c Category) bool {
	for _, want := range f.Categories {
		if want == c {
			return true
		}
	}
	return false
}

// MatchesText reports whether the record's name, MMSI or IMO contains the
// free-text query as a case-insensitive substring. An empty query matches
// every record.
func (f FilterSelection) MatchesText(v *VesselRecord) bool {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(v.Name), q) ||
		strings.Contains(strings.ToLower(v.MMSI), q) ||
		strings.Contains(strings.ToLower(v.IMO), q)
}
