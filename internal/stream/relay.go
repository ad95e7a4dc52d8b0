// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package stream

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/zonkeynet/shipwatch/internal/models"
)

// relayDialect speaks the relay worker protocol. The relay keeps the
// upstream API key server-side and forwards already partly normalized
// vessel frames:
//
//	{"type":"status","status":"..."}
//	{"type":"error","error":"..."}
//	{"type":"vessel","data":{...}}
//
// The subscription payload is {"type":"subscribe","bbox":[[S,W],[N,E]]}
// with optional messageTypes and mmsi arrays.
type relayDialect struct{}

func (relayDialect) Name() string { return "relay" }

type relaySubscribe struct {
	Type         string       `json:"type"`
	BBox         [2][2]float64 `json:"bbox"`
	MessageTypes []string     `json:"messageTypes,omitempty"`
	MMSI         []string     `json:"mmsi,omitempty"`
}

func (relayDialect) SubscribePayload(area models.AreaOfInterest, messageTypes, mmsiFilter []string) ([]byte, error) {
	payload := relaySubscribe{
		Type: "subscribe",
		BBox: [2][2]float64{
			{area.South, area.West},
			{area.North, area.East},
		},
		MessageTypes: messageTypes,
		MMSI:         mmsiFilter,
	}
	return json.Marshal(payload)
}

type relayEnvelope struct {
	Type   string         `json:"type"`
	Status string         `json:"status"`
	Error  string         `json:"error"`
	Data   map[string]any `json:"data"`
}

func (relayDialect) DecodeFrame(data []byte) (Frame, error) {
	var env relayEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Frame{}, fmt.Errorf("parse relay frame: %w", err)
	}

	switch env.Type {
	case "status":
		text := env.Status
		if text == "" {
			text = "ok"
		}
		return Frame{Kind: FrameStatus, Text: text}, nil

	case "error":
		text := env.Error
		if text == "" {
			text = "unknown"
		}
		return Frame{Kind: FrameError, Text: text}, nil

	case "vessel":
		if env.Data == nil {
			return Frame{Kind: FrameIgnored}, nil
		}
		return Frame{Kind: FrameVessel, Vessel: normalizeRelayVessel(env.Data)}, nil

	default:
		return Frame{Kind: FrameIgnored}, nil
	}
}

// normalizeRelayVessel coalesces the relay's loosely spelled vessel
// fields into a canonical record. Coordinates may be flat (lat/latitude,
// lon/lng/longitude) or nested under a position object; the ship type
// code shows up as ais_shiptype, SHIPTYPE or shiptype_code depending on
// which upstream source produced the frame.
func normalizeRelayVessel(m map[string]any) *models.VesselRecord {
	rec := &models.VesselRecord{
		MMSI:        looseString(m, "mmsi"),
		IMO:         looseString(m, "imo"),
		Name:        looseString(m, "name"),
		Flag:        looseString(m, "flag"),
		ShipType:    looseInt(m, "ais_shiptype", "SHIPTYPE", "shiptype_code"),
		TypeText:    looseString(m, "type"),
		CargoText:   looseString(m, "subtype", "cargo"),
		Destination: looseString(m, "destination"),
	}

	rec.Lat = looseFloat(m, "lat", "latitude", "Latitude")
	rec.Lon = looseFloat(m, "lon", "lng", "longitude", "Longitude")
	if rec.Lat == nil || rec.Lon == nil {
		if pos := looseObject(m, "position"); pos != nil {
			if rec.Lat == nil {
				rec.Lat = looseFloat(pos, "lat", "latitude")
			}
			if rec.Lon == nil {
				rec.Lon = looseFloat(pos, "lon", "lng", "longitude")
			}
		}
	}

	return rec
}
