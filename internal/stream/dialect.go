// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package stream

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zonkeynet/shipwatch/internal/models"
)

// Dialect speaks one upstream feed format: it builds the subscription
// payload sent after connecting and decodes incoming frames.
//
// Implementations must be safe for concurrent use; in practice they are
// stateless.
type Dialect interface {
	// Name returns the dialect identifier used in config and logs.
	Name() string

	// SubscribePayload builds the message sent right after the socket
	// opens. messageTypes and mmsiFilter narrow the subscription and may
	// be empty.
	SubscribePayload(area models.AreaOfInterest, messageTypes, mmsiFilter []string) ([]byte, error)

	// DecodeFrame parses one raw frame. A nil error with FrameIgnored is
	// the "parsed but useless" case; a non-nil error marks the frame as
	// malformed.
	DecodeFrame(data []byte) (Frame, error)
}

// NewDialect returns the dialect for a config name.
func NewDialect(name, apiKey string) (Dialect, error) {
	switch name {
	case "relay":
		return relayDialect{}, nil
	case "aisstream":
		return aisstreamDialect{apiKey: apiKey}, nil
	default:
		return nil, fmt.Errorf("unknown upstream dialect %q", name)
	}
}

// Loose-field helpers. Relay feeds are assembled from several upstream
// sources and spell fields inconsistently: numbers arrive as strings,
// strings as numbers, coordinates under three different names or nested
// in a position object. These helpers coalesce whatever shows up.

// looseString returns the first non-empty field among names, rendering
// numbers without a decimal point when they are integral.
func looseString(m map[string]any, names ...string) string {
	for _, name := range names {
		switch v := m[name].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			if v == math.Trunc(v) {
				return strconv.FormatInt(int64(v), 10)
			}
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// looseFloat returns the first parsable finite number among names.
func looseFloat(m map[string]any, names ...string) *float64 {
	for _, name := range names {
		switch v := m[name].(type) {
		case float64:
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				f := v
				return &f
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				return &f
			}
		}
	}
	return nil
}

// looseInt returns the first parsable integer among names.
func looseInt(m map[string]any, names ...string) *int {
	if f := looseFloat(m, names...); f != nil {
		n := int(*f)
		return &n
	}
	return nil
}

// looseObject returns a nested JSON object field, or nil.
func looseObject(m map[string]any, name string) map[string]any {
	if obj, ok := m[name].(map[string]any); ok {
		return obj
	}
	return nil
}
