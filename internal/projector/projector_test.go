// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package projector

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zonkeynet/shipwatch/internal/models"
	"github.com/zonkeynet/shipwatch/internal/store"
)

type captureBroadcaster struct {
	mu        sync.Mutex
	snapshots [][]models.VesselRecord
}

func (b *captureBroadcaster) BroadcastVessels(vessels []models.VesselRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshots = append(b.snapshots, vessels)
}

func (b *captureBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.snapshots)
}

func (b *captureBroadcaster) last() []models.VesselRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.snapshots) == 0 {
		return nil
	}
	return b.snapshots[len(b.snapshots)-1]
}

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New()
	st.Upsert(models.VesselRecord{MMSI: "1", Name: "ALPHA", Category: models.CategoryMilitary})
	st.Upsert(models.VesselRecord{MMSI: "2", Name: "BRAVO", Category: models.CategoryIsraeli})
	return st
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestProjectorCadence(t *testing.T) {
	b := &captureBroadcaster{}
	p := New(seedStore(t), b, 10*time.Millisecond, models.DefaultFilter())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Serve(ctx) }()

	waitFor(t, "three projected snapshots", func() bool { return b.count() >= 3 })

	if got := b.last(); len(got) != 2 {
		t.Errorf("snapshot size = %d, want 2", len(got))
	}
}

func TestProjectorFilterChangeIsImmediate(t *testing.T) {
	b := &captureBroadcaster{}
	// Cadence long enough that only the filter kick can produce output.
	p := New(seedStore(t), b, time.Hour, models.DefaultFilter())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Serve(ctx) }()

	p.SetFilter(models.FilterSelection{Categories: []models.Category{models.CategoryMilitary}})

	waitFor(t, "out-of-cycle snapshot", func() bool { return b.count() >= 1 })

	snap := b.last()
	if len(snap) != 1 || snap[0].Name != "ALPHA" {
		t.Errorf("filtered snapshot = %+v, want only ALPHA", snap)
	}
}

func TestProjectorFilterAccessors(t *testing.T) {
	p := New(store.New(), &captureBroadcaster{}, time.Second, models.DefaultFilter())

	f := models.FilterSelection{
		Categories: []models.Category{models.CategoryPotentialArms},
		Query:      "glory",
	}
	p.SetFilter(f)

	got := p.Filter()
	if got.Query != "glory" || len(got.Categories) != 1 || got.Categories[0] != models.CategoryPotentialArms {
		t.Errorf("Filter() = %+v, want %+v", got, f)
	}
}

func TestProjectorStopsOnCancel(t *testing.T) {
	p := New(store.New(), &captureBroadcaster{}, 5*time.Millisecond, models.DefaultFilter())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("projector did not stop")
	}
}
