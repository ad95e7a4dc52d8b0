// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

// Package store implements the keyed vessel state store.
//
// The store owns every VesselRecord exclusively. Mutation happens only
// from the single ingestion path; snapshots copy records out so readers
// never observe a torn or shared structure. Vessels persist for the
// session: there is no eviction or expiry.
package store

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/zonkeynet/shipwatch/internal/models"
)

// entry pairs a record with its insertion sequence, which provides the
// stable tie-break for snapshot ordering.
type entry struct {
	rec models.VesselRecord
	seq uint64
}

// Store is a keyed mapping of vessel identity to latest normalized record.
//
// The identity key is resolved per record as MMSI, else IMO, else name,
// else a store-unique fallback. Updates replace the record wholesale:
// providers resend full state, so latest-wins is the freshness model.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextSeq uint64
}

// New creates an empty vessel store.
func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// key prefixes avoid collisions between identity namespaces: an IMO number
// could otherwise collide with an MMSI of the same digits.
const (
	keyPrefixMMSI = "mmsi:"
	keyPrefixIMO  = "imo:"
	keyPrefixName = "name:"
	keyPrefixAnon = "anon:"
)

// resolveKey computes the identity key for a record, generating a
// store-unique fallback for records with no identity fields at all.
func resolveKey(rec *models.VesselRecord) string {
	switch {
	case rec.MMSI != "":
		return keyPrefixMMSI + rec.MMSI
	case rec.IMO != "":
		return keyPrefixIMO + rec.IMO
	case rec.Name != "":
		return keyPrefixName + rec.Name
	default:
		return keyPrefixAnon + uuid.NewString()
	}
}

// Upsert inserts or replaces the record under its identity key and returns
// the key along with whether a new entry was created.
//
// When a vessel first gains an MMSI after having been stored under a
// weaker key (IMO or name), the old entry is migrated into the MMSI key so
// the vessel stays a single store entry. The migrated entry keeps its
// original insertion sequence, preserving snapshot tie-break order.
func (s *Store) Upsert(rec models.VesselRecord) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := resolveKey(&rec)

	if existing, ok := s.entries[key]; ok {
		existing.rec = rec
		return key, false
	}

	seq := s.nextSeq
	s.nextSeq++

	// One-time key migration: a newly MMSI-keyed record adopts a prior
	// keyless entry whose IMO or name matches.
	if rec.MMSI != "" {
		if old := s.findMigratable(&rec); old != "" {
			seq = s.entries[old].seq
			delete(s.entries, old)
		}
	}

	s.entries[key] = &entry{rec: rec, seq: seq}
	return key, true
}

// findMigratable locates an entry stored under an IMO or name key that
// matches the given record's secondary identity fields. Caller holds the
// write lock.
func (s *Store) findMigratable(rec *models.VesselRecord) string {
	if rec.IMO != "" {
		if _, ok := s.entries[keyPrefixIMO+rec.IMO]; ok {
			return keyPrefixIMO + rec.IMO
		}
	}
	if rec.Name != "" {
		if _, ok := s.entries[keyPrefixName+rec.Name]; ok {
			return keyPrefixName + rec.Name
		}
	}
	return ""
}

// Get returns a copy of the record stored under the given key.
func (s *Store) Get(key string) (models.VesselRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return models.VesselRecord{}, false
	}
	return e.rec, true
}

// Len returns the number of stored vessels.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns copies of every record whose category is in the
// filter's wanted set and whose name/MMSI/IMO match the filter's free-text
// query, sorted by name ascending. Records without a name sort with an
// empty-string key, placing them first; ties break by insertion order.
//
// The returned slice shares no memory with the store, so it may be used
// concurrently with ongoing upserts.
func (s *Store) Snapshot(filter models.FilterSelection) []models.VesselRecord {
	s.mu.RLock()
	matched := make([]entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !filter.Wants(e.rec.Category) {
			continue
		}
		if !filter.MatchesText(&e.rec) {
			continue
		}
		matched = append(matched, *e)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].rec.Name != matched[j].rec.Name {
			return matched[i].rec.Name < matched[j].rec.Name
		}
		return matched[i].seq < matched[j].seq
	})

	out := make([]models.VesselRecord, len(matched))
	for i := range matched {
		out[i] = matched[i].rec
	}
	return out
}
