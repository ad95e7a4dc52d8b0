// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package stream

import (
	"github.com/zonkeynet/shipwatch/internal/classify"
	"github.com/zonkeynet/shipwatch/internal/events"
	"github.com/zonkeynet/shipwatch/internal/logging"
	"github.com/zonkeynet/shipwatch/internal/metrics"
	"github.com/zonkeynet/shipwatch/internal/store"
)

// StatusFunc receives human-readable feed status text for display.
type StatusFunc func(text string)

// Pipeline turns raw upstream frames into stored, classified vessel
// records. It is the single write path into the store.
//
// Frame handling rules:
//   - Malformed frames are counted and dropped; the stream never dies
//     because one message failed to parse.
//   - Vessel frames carrying neither an identity field nor a position
//     are discarded; anything with at least one of the two is kept.
//   - Vessels that classify into no watch category are discarded; the
//     store only ever holds watched vessels.
type Pipeline struct {
	dialect   Dialect
	store     *store.Store
	publisher events.Publisher
	onStatus  StatusFunc
}

// NewPipeline wires a pipeline. publisher and onStatus may be nil.
func NewPipeline(dialect Dialect, st *store.Store, publisher events.Publisher, onStatus StatusFunc) *Pipeline {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Pipeline{
		dialect:   dialect,
		store:     st,
		publisher: publisher,
		onStatus:  onStatus,
	}
}

// HandleFrame processes one raw frame from the upstream socket.
func (p *Pipeline) HandleFrame(data []byte) {
	frame, err := p.dialect.DecodeFrame(data)
	if err != nil {
		metrics.FramesDiscarded.WithLabelValues("malformed").Inc()
		logging.Debug().Err(err).Int("bytes", len(data)).Msg("Dropped malformed frame")
		return
	}

	metrics.FramesReceived.WithLabelValues(frame.Kind.String()).Inc()

	switch frame.Kind {
	case FrameStatus:
		logging.Debug().Str("status", frame.Text).Msg("Feed status")
		p.status("Feed: " + frame.Text)

	case FrameError:
		logging.Warn().Str("error", frame.Text).Msg("Feed reported error")
		p.status("Feed error: " + frame.Text)

	case FrameVessel:
		p.handleVessel(frame)

	case FrameIgnored:
		// Parsed fine, nothing to do.
	}
}

func (p *Pipeline) handleVessel(frame Frame) {
	v := frame.Vessel
	if v == nil || (!v.HasIdentity() && !v.HasPosition()) {
		metrics.FramesDiscarded.WithLabelValues("incomplete").Inc()
		return
	}

	v.Category = classify.Classify(v)
	if v.Category == "" {
		metrics.FramesDiscarded.WithLabelValues("unclassified").Inc()
		return
	}

	key, inserted := p.store.Upsert(*v)
	metrics.VesselsUpserted.WithLabelValues(string(v.Category)).Inc()
	metrics.VesselsStored.Set(float64(p.store.Len()))

	if inserted {
		logging.Debug().
			Str("key", key).
			Str("name", v.Name).
			Str("category", string(v.Category)).
			Msg("New vessel tracked")
	}

	if err := p.publisher.PublishVessel(key, inserted, v); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Vessel event publish failed")
	}
}

func (p *Pipeline) status(text string) {
	if p.onStatus != nil {
		p.onStatus(text)
	}
}
