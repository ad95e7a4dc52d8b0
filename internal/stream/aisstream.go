// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package stream

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/zonkeynet/shipwatch/internal/models"
)

// aisstreamDialect speaks the aisstream.io envelope directly, without a
// relay in between. The API key travels in the subscription payload:
//
//	{"APIKey":"...","BoundingBoxes":[[[S,W],[N,E]]],
//	 "FilterMessageTypes":[...],"FiltersShipMMSI":[...]}
//
// Incoming messages wrap the decoded AIS sentence in a Message object
// keyed by MessageType, with MetaData carrying the position and ship
// name regardless of type.
type aisstreamDialect struct {
	apiKey string
}

func (aisstreamDialect) Name() string { return "aisstream" }

type aisstreamSubscribe struct {
	APIKey             string           `json:"APIKey"`
	BoundingBoxes      [][][2]float64   `json:"BoundingBoxes"`
	FilterMessageTypes []string         `json:"FilterMessageTypes,omitempty"`
	FiltersShipMMSI    []string         `json:"FiltersShipMMSI,omitempty"`
}

func (d aisstreamDialect) SubscribePayload(area models.AreaOfInterest, messageTypes, mmsiFilter []string) ([]byte, error) {
	payload := aisstreamSubscribe{
		APIKey: d.apiKey,
		BoundingBoxes: [][][2]float64{{
			{area.South, area.West},
			{area.North, area.East},
		}},
		FilterMessageTypes: messageTypes,
		FiltersShipMMSI:    mmsiFilter,
	}
	return json.Marshal(payload)
}

type aisstreamEnvelope struct {
	MessageType string `json:"MessageType"`
	MetaData    struct {
		MMSI      int64    `json:"MMSI"`
		ShipName  string   `json:"ShipName"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"MetaData"`
	Message struct {
		PositionReport *struct {
			Latitude  *float64 `json:"Latitude"`
			Longitude *float64 `json:"Longitude"`
		} `json:"PositionReport"`
		ShipStaticData *struct {
			ImoNumber   int64  `json:"ImoNumber"`
			Name        string `json:"Name"`
			Type        *int   `json:"Type"`
			Destination string `json:"Destination"`
		} `json:"ShipStaticData"`
		StaticDataReport *struct {
			ReportA *struct {
				Valid bool   `json:"Valid"`
				Name  string `json:"Name"`
			} `json:"ReportA"`
			ReportB *struct {
				Valid    bool `json:"Valid"`
				ShipType *int `json:"ShipType"`
			} `json:"ReportB"`
		} `json:"StaticDataReport"`
	} `json:"Message"`
}

func (aisstreamDialect) DecodeFrame(data []byte) (Frame, error) {
	var env aisstreamEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Frame{}, fmt.Errorf("parse aisstream frame: %w", err)
	}

	// Error frames arrive as {"error":"..."} before the stream starts.
	if env.MessageType == "" {
		var errFrame struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &errFrame) == nil && errFrame.Error != "" {
			return Frame{Kind: FrameError, Text: errFrame.Error}, nil
		}
		return Frame{Kind: FrameIgnored}, nil
	}

	rec := &models.VesselRecord{
		Name: strings.TrimSpace(env.MetaData.ShipName),
		Lat:  env.MetaData.Latitude,
		Lon:  env.MetaData.Longitude,
	}
	if env.MetaData.MMSI > 0 {
		rec.MMSI = strconv.FormatInt(env.MetaData.MMSI, 10)
	}

	switch env.MessageType {
	case "PositionReport":
		if pr := env.Message.PositionReport; pr != nil {
			if pr.Latitude != nil {
				rec.Lat = pr.Latitude
			}
			if pr.Longitude != nil {
				rec.Lon = pr.Longitude
			}
		}

	case "ShipStaticData":
		if sd := env.Message.ShipStaticData; sd != nil {
			if sd.ImoNumber > 0 {
				rec.IMO = strconv.FormatInt(sd.ImoNumber, 10)
			}
			if name := strings.TrimSpace(sd.Name); name != "" {
				rec.Name = name
			}
			rec.ShipType = sd.Type
			rec.Destination = strings.TrimSpace(sd.Destination)
		}

	case "StaticDataReport":
		if sr := env.Message.StaticDataReport; sr != nil {
			if sr.ReportA != nil && sr.ReportA.Valid {
				if name := strings.TrimSpace(sr.ReportA.Name); name != "" {
					rec.Name = name
				}
			}
			if sr.ReportB != nil && sr.ReportB.Valid {
				rec.ShipType = sr.ReportB.ShipType
			}
		}

	default:
		// Other sentence types (BaseStationReport, AidsToNavigation...)
		// carry nothing the watchlist uses.
		return Frame{Kind: FrameIgnored}, nil
	}

	return Frame{Kind: FrameVessel, Vessel: rec}, nil
}
