// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package store

import (
	"strings"
	"sync"
	"testing"

	"github.com/zonkeynet/shipwatch/internal/models"
)

func allFilter() models.FilterSelection {
	return models.DefaultFilter()
}

func TestUpsert_Idempotent(t *testing.T) {
	s := New()
	rec := models.VesselRecord{MMSI: "111222333", Name: "ALPHA", Category: models.CategoryMilitary}

	key1, created := s.Upsert(rec)
	if !created {
		t.Fatal("first upsert should create an entry")
	}
	key2, created := s.Upsert(rec)
	if created {
		t.Error("second upsert of same record must not create a new entry")
	}
	if key1 != key2 {
		t.Errorf("keys differ: %q vs %q", key1, key2)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", s.Len())
	}

	snap := s.Snapshot(allFilter())
	if len(snap) != 1 || snap[0].Name != "ALPHA" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestUpsert_LatestWins(t *testing.T) {
	s := New()
	s.Upsert(models.VesselRecord{MMSI: "111222333", Name: "ALPHA", Destination: "HAIFA", Category: models.CategoryIsraeli})
	// Replacement drops fields the newer record does not carry: no partial merge.
	key, _ := s.Upsert(models.VesselRecord{MMSI: "111222333", Name: "ALPHA", Category: models.CategoryIsraeli})

	got, ok := s.Get(key)
	if !ok {
		t.Fatal("entry missing")
	}
	if got.Destination != "" {
		t.Errorf("expected wholesale replace, destination survived: %q", got.Destination)
	}
}

func TestUpsert_KeyPreference(t *testing.T) {
	s := New()

	key, _ := s.Upsert(models.VesselRecord{MMSI: "111", IMO: "9123456", Name: "A", Category: models.CategoryMilitary})
	if !strings.HasPrefix(key, "mmsi:") {
		t.Errorf("expected mmsi key, got %q", key)
	}
	key, _ = s.Upsert(models.VesselRecord{IMO: "9123456", Name: "A", Category: models.CategoryMilitary})
	if !strings.HasPrefix(key, "imo:") {
		t.Errorf("expected imo key, got %q", key)
	}
	key, _ = s.Upsert(models.VesselRecord{Name: "A", Category: models.CategoryMilitary})
	if !strings.HasPrefix(key, "name:") {
		t.Errorf("expected name key, got %q", key)
	}
	key, _ = s.Upsert(models.VesselRecord{Category: models.CategoryMilitary})
	if !strings.HasPrefix(key, "anon:") {
		t.Errorf("expected fallback key, got %q", key)
	}
}

func TestUpsert_FallbackKeysUnique(t *testing.T) {
	s := New()
	s.Upsert(models.VesselRecord{Category: models.CategoryMilitary})
	s.Upsert(models.VesselRecord{Category: models.CategoryMilitary})
	if s.Len() != 2 {
		t.Errorf("identity-less records must not collide, got %d entries", s.Len())
	}
}

func TestUpsert_KeyMigrationOnMMSIAppearing(t *testing.T) {
	s := New()

	// First frame arrives without MMSI: keyed by IMO.
	s.Upsert(models.VesselRecord{IMO: "9123456", Name: "ALPHA", Category: models.CategoryPotentialArms})
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Len())
	}

	// A later frame for the same hull carries the MMSI: the IMO-keyed
	// entry migrates rather than duplicating.
	s.Upsert(models.VesselRecord{MMSI: "111222333", IMO: "9123456", Name: "ALPHA", Category: models.CategoryPotentialArms})
	if s.Len() != 1 {
		t.Errorf("expected key migration to keep 1 entry, got %d", s.Len())
	}

	if _, ok := s.Get("mmsi:111222333"); !ok {
		t.Error("migrated entry not found under mmsi key")
	}
	if _, ok := s.Get("imo:9123456"); ok {
		t.Error("stale imo-keyed entry survived migration")
	}
}

func TestUpsert_KeyMigrationByName(t *testing.T) {
	s := New()
	s.Upsert(models.VesselRecord{Name: "BETA", Category: models.CategoryMilitary})
	s.Upsert(models.VesselRecord{MMSI: "444555666", Name: "BETA", Category: models.CategoryMilitary})
	if s.Len() != 1 {
		t.Errorf("expected name-keyed entry to migrate, got %d entries", s.Len())
	}
}

func TestSnapshot_CategoryFilter(t *testing.T) {
	s := New()
	s.Upsert(models.VesselRecord{MMSI: "1", Name: "WARSHIP", Category: models.CategoryMilitary})
	s.Upsert(models.VesselRecord{MMSI: "2", Name: "MERCHANT", Category: models.CategoryIsraeli})

	snap := s.Snapshot(models.FilterSelection{Categories: []models.Category{models.CategoryMilitary}})
	if len(snap) != 1 {
		t.Fatalf("expected exactly 1 record, got %d", len(snap))
	}
	if snap[0].Name != "WARSHIP" {
		t.Errorf("expected WARSHIP, got %q", snap[0].Name)
	}
}

func TestSnapshot_TextQuery(t *testing.T) {
	s := New()
	s.Upsert(models.VesselRecord{MMSI: "428111222", Name: "ZIM HAIFA", Category: models.CategoryIsraeli})
	s.Upsert(models.VesselRecord{MMSI: "428333444", Name: "OTHER", IMO: "9777888", Category: models.CategoryIsraeli})

	cases := []struct {
		query string
		want  int
	}{
		{"zim", 1},
		{"HAIFA", 1},
		{"428", 2},
		{"9777", 1},
		{"nomatch", 0},
		{"", 2},
	}
	for _, tc := range cases {
		f := models.FilterSelection{Categories: []models.Category{models.CategoryIsraeli}, Query: tc.query}
		if got := len(s.Snapshot(f)); got != tc.want {
			t.Errorf("query %q: expected %d records, got %d", tc.query, tc.want, got)
		}
	}
}

func TestSnapshot_Ordering(t *testing.T) {
	s := New()
	s.Upsert(models.VesselRecord{MMSI: "1", Name: "CHARLIE", Category: models.CategoryMilitary})
	s.Upsert(models.VesselRecord{MMSI: "2", Category: models.CategoryMilitary}) // nameless, inserted second
	s.Upsert(models.VesselRecord{MMSI: "3", Name: "ALPHA", Category: models.CategoryMilitary})
	s.Upsert(models.VesselRecord{MMSI: "4", Category: models.CategoryMilitary}) // nameless, inserted fourth

	snap := s.Snapshot(allFilter())
	if len(snap) != 4 {
		t.Fatalf("expected 4 records, got %d", len(snap))
	}

	// Nameless records sort first (empty-string key), ties by insertion order.
	if snap[0].MMSI != "2" || snap[1].MMSI != "4" {
		t.Errorf("nameless records out of order: %q then %q", snap[0].MMSI, snap[1].MMSI)
	}
	if snap[2].Name != "ALPHA" || snap[3].Name != "CHARLIE" {
		t.Errorf("named records out of order: %q then %q", snap[2].Name, snap[3].Name)
	}
}

func TestSnapshot_CopyOnRead(t *testing.T) {
	s := New()
	s.Upsert(models.VesselRecord{MMSI: "1", Name: "ALPHA", Category: models.CategoryMilitary})

	snap := s.Snapshot(allFilter())
	snap[0].Name = "MUTATED"

	again := s.Snapshot(allFilter())
	if again[0].Name != "ALPHA" {
		t.Error("snapshot mutation leaked into the store")
	}
}

func TestSnapshot_ConcurrentWithUpserts(t *testing.T) {
	s := New()
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.Upsert(models.VesselRecord{MMSI: "428000001", Name: "ALPHA", Category: models.CategoryIsraeli})
		}
		close(done)
	}()

	for {
		select {
		case <-done:
			wg.Wait()
			return
		default:
			snap := s.Snapshot(allFilter())
			if len(snap) > 1 {
				t.Fatalf("torn snapshot: %d entries for one vessel", len(snap))
			}
		}
	}
}
