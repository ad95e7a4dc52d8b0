// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

// Package models defines the canonical data shapes shared across ShipWatch:
// the normalized VesselRecord, watch Category, the AreaOfInterest bounding
// box, the UI FilterSelection and the SubscriptionState machine states.
//
// All types here are plain values with no behavior beyond accessors;
// ownership rules live with the components that hold them (the store owns
// records, the subscription controller owns state and area).
package models
