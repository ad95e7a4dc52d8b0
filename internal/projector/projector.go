// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

// Package projector periodically projects the vessel store into view
// snapshots for connected map clients.
package projector

import (
	"context"
	"sync"
	"time"

	"github.com/zonkeynet/shipwatch/internal/logging"
	"github.com/zonkeynet/shipwatch/internal/metrics"
	"github.com/zonkeynet/shipwatch/internal/models"
	"github.com/zonkeynet/shipwatch/internal/store"
)

// Broadcaster receives projected vessel snapshots for delivery to
// clients. The websocket hub implements this.
type Broadcaster interface {
	BroadcastVessels(vessels []models.VesselRecord)
}

// Projector drives view refreshes on a fixed cadence, decoupling
// rendering cost from upstream message rate. A filter change triggers
// an immediate out-of-cycle snapshot so the view reacts instantly; the
// regular cadence continues unchanged either way.
type Projector struct {
	store       *store.Store
	broadcaster Broadcaster
	interval    time.Duration

	mu     sync.RWMutex
	filter models.FilterSelection

	kick chan struct{}
}

// New builds a projector with the given startup filter.
func New(st *store.Store, b Broadcaster, interval time.Duration, filter models.FilterSelection) *Projector {
	return &Projector{
		store:       st,
		broadcaster: b,
		interval:    interval,
		filter:      filter,
		kick:        make(chan struct{}, 1),
	}
}

// String identifies the projector in supervisor logs.
func (p *Projector) String() string { return "view-projector" }

// Filter returns the active filter selection.
func (p *Projector) Filter() models.FilterSelection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.filter
}

// SetFilter replaces the active filter and schedules an immediate
// snapshot. Safe to call from any goroutine.
func (p *Projector) SetFilter(f models.FilterSelection) {
	p.mu.Lock()
	p.filter = f
	p.mu.Unlock()

	select {
	case p.kick <- struct{}{}:
	default:
		// A refresh is already pending.
	}
}

// Serve projects snapshots until ctx is canceled.
func (p *Projector) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	logging.Info().Dur("interval", p.interval).Msg("View projector started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.project()
		case <-p.kick:
			p.project()
		}
	}
}

func (p *Projector) project() {
	start := time.Now()
	snapshot := p.store.Snapshot(p.Filter())

	metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	metrics.SnapshotSize.Observe(float64(len(snapshot)))

	p.broadcaster.BroadcastVessels(snapshot)
}
