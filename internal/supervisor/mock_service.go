// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package supervisor

import (
	"context"
	"sync/atomic"
)

// MockService is a minimal suture.Service used by tests. It blocks until
// its context is canceled and counts how many times it was started.
type MockService struct {
	name   string
	starts atomic.Int64
}

// NewMockService creates a mock service with the given name.
func NewMockService(name string) *MockService {
	return &MockService{name: name}
}

// Serve implements suture.Service.
func (m *MockService) Serve(ctx context.Context) error {
	m.starts.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

// Starts returns how many times Serve has been entered.
func (m *MockService) Starts() int64 {
	return m.starts.Load()
}

// String implements fmt.Stringer.
func (m *MockService) String() string {
	return m.name
}
