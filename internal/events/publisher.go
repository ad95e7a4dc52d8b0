// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

// Package events publishes classified vessel updates to NATS so that
// downstream consumers (alerting, archival) can react without polling
// the HTTP API. Publishing is fire-and-forget and strictly optional:
// ingestion never blocks or fails because the broker is away.
package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/zonkeynet/shipwatch/internal/logging"
	"github.com/zonkeynet/shipwatch/internal/metrics"
	"github.com/zonkeynet/shipwatch/internal/models"
)

// Publisher emits vessel update events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	// PublishVessel emits one classified vessel record under its store
	// key. inserted is true when the record was new to the store.
	PublishVessel(key string, inserted bool, v *models.VesselRecord) error

	// Close releases broker resources. Safe to call more than once.
	Close() error
}

// VesselEvent is the wire shape of a published update.
type VesselEvent struct {
	Key       string              `json:"key"`
	Inserted  bool                `json:"inserted"`
	Vessel    models.VesselRecord `json:"vessel"`
	Timestamp time.Time           `json:"timestamp"`
}

// NATSPublisher publishes vessel events to a core NATS subject.
type NATSPublisher struct {
	conn    *natsgo.Conn
	subject string

	mu     sync.RWMutex
	closed bool
}

// NewNATSPublisher connects to the broker and returns a publisher for the
// given subject. The connection retries in the background on failure so a
// broker restart never takes ingestion down with it.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		return nil, fmt.Errorf("publish subject is required")
	}

	opts := []natsgo.Option{
		natsgo.Name("shipwatch"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	conn, err := natsgo.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// PublishVessel serializes the record and publishes it.
func (p *NATSPublisher) PublishVessel(key string, inserted bool, v *models.VesselRecord) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	event := VesselEvent{
		Key:       key,
		Inserted:  inserted,
		Vessel:    *v,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		metrics.EventPublishErrors.Inc()
		return fmt.Errorf("marshal vessel event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		metrics.EventPublishErrors.Inc()
		return fmt.Errorf("publish vessel event: %w", err)
	}

	metrics.EventsPublished.Inc()
	return nil
}

// Close drains pending publishes and closes the connection.
func (p *NATSPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}

// NopPublisher discards all events. Used when NATS is disabled.
type NopPublisher struct{}

// PublishVessel discards the record.
func (NopPublisher) PublishVessel(string, bool, *models.VesselRecord) error { return nil }

// Close is a no-op.
func (NopPublisher) Close() error { return nil }
