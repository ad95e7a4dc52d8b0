// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/zonkeynet/shipwatch/internal/config"
	"github.com/zonkeynet/shipwatch/internal/models"
	"github.com/zonkeynet/shipwatch/internal/store"
)

type fakeConn struct {
	mu      sync.Mutex
	in      chan []byte
	closed  chan struct{}
	once    sync.Once
	written [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-c.in:
		return 1, data, nil
	case <-c.closed:
		return 0, nil, errors.New("use of closed network connection")
	}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-c.closed:
		return errors.New("connection closed")
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, data)
	return nil
}

func (c *fakeConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	return nil
}

func (c *fakeConn) SetReadDeadline(t time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) firstWritten() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.written) == 0 {
		return nil
	}
	return c.written[0]
}

type fakeDialer struct {
	mu       sync.Mutex
	failures int // fail this many dials before succeeding
	dials    int
	conns    []*fakeConn
}

func (d *fakeDialer) DialContext(ctx context.Context, urlStr string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.dials <= d.failures {
		return nil, errors.New("connection refused")
	}
	conn := newFakeConn()
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}

func testUpstreamConfig() config.UpstreamConfig {
	return config.UpstreamConfig{
		URL:         "wss://feed.test/ws",
		Dialect:     "relay",
		BackoffBase: 5 * time.Millisecond,
		BackoffCap:  40 * time.Millisecond,
		// Breaker disabled so backoff tests exercise the plain ladder.
		BreakerThreshold: 0,
	}
}

func testController(t *testing.T, cfg config.UpstreamConfig, dialer Dialer) (*Controller, *store.Store) {
	t.Helper()
	st := store.New()
	pipeline := NewPipeline(relayDialect{}, st, nil, nil)
	area := models.AreaOfInterest{South: 30, West: -15, North: 65, East: 40}
	c := NewController(cfg, 0.2, area, relayDialect{}, pipeline, nil)
	c.dialer = dialer
	return c, st
}

// waitFor polls cond until it holds or the deadline passes.
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

func TestNextDelayLadder(t *testing.T) {
	base := 1 * time.Second
	limit := 30 * time.Second

	delay := base
	want := []time.Duration{
		2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second,
	}
	for i, w := range want {
		delay = nextDelay(delay, limit)
		if delay != w {
			t.Errorf("step %d: delay = %s, want %s", i, delay, w)
		}
	}
}

func TestControllerSubscribesOnConnect(t *testing.T) {
	dialer := &fakeDialer{}
	c, _ := testController(t, testUpstreamConfig(), dialer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Serve(ctx) }()

	waitFor(t, "subscribed state", func() bool { return c.State() == models.StateSubscribed })

	conn := dialer.conn(0)
	var payload struct {
		Type string       `json:"type"`
		BBox [][2]float64 `json:"bbox"`
	}
	if err := json.Unmarshal(conn.firstWritten(), &payload); err != nil {
		t.Fatalf("unmarshal subscribe payload: %v", err)
	}
	if payload.Type != "subscribe" {
		t.Errorf("first write type = %q, want subscribe", payload.Type)
	}
	if payload.BBox[0] != [2]float64{30, -15} {
		t.Errorf("subscribe bbox = %v", payload.BBox)
	}
}

func TestControllerRetriesWithBackoff(t *testing.T) {
	dialer := &fakeDialer{failures: 3}
	c, _ := testController(t, testUpstreamConfig(), dialer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	go func() { _ = c.Serve(ctx) }()

	waitFor(t, "subscribed state after failures", func() bool { return c.State() == models.StateSubscribed })

	if got := dialer.dialCount(); got != 4 {
		t.Errorf("dial count = %d, want 4", got)
	}
	// Three failures wait 5ms + 10ms + 20ms before the fourth attempt.
	if elapsed := time.Since(start); elapsed < 35*time.Millisecond {
		t.Errorf("reconnected after %s, backoff not applied", elapsed)
	}
}

func TestControllerFramesReachStore(t *testing.T) {
	dialer := &fakeDialer{}
	c, st := testController(t, testUpstreamConfig(), dialer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Serve(ctx) }()

	waitFor(t, "subscribed state", func() bool { return c.State() == models.StateSubscribed })

	dialer.conn(0).in <- []byte(`{"type":"vessel","data":{"mmsi":"428000123","name":"ZIM TEST"}}`)

	waitFor(t, "vessel in store", func() bool { return st.Len() == 1 })
}

func TestControllerReconnectsAfterDrop(t *testing.T) {
	dialer := &fakeDialer{}
	c, _ := testController(t, testUpstreamConfig(), dialer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Serve(ctx) }()

	waitFor(t, "first connection", func() bool { return c.State() == models.StateSubscribed })

	dialer.conn(0).Close()

	waitFor(t, "second connection", func() bool { return dialer.dialCount() == 2 })
	waitFor(t, "resubscribed", func() bool { return c.State() == models.StateSubscribed })
}

func TestControllerAreaMoveThreshold(t *testing.T) {
	dialer := &fakeDialer{}
	c, _ := testController(t, testUpstreamConfig(), dialer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Serve(ctx) }()

	waitFor(t, "subscribed state", func() bool { return c.State() == models.StateSubscribed })

	// 0.1 degrees on one bound: under the 0.2 threshold, no resubscribe.
	c.SetArea(models.AreaOfInterest{South: 30.1, West: -15, North: 65, East: 40})
	time.Sleep(30 * time.Millisecond)
	if got := dialer.dialCount(); got != 1 {
		t.Fatalf("small move caused resubscribe, dial count = %d", got)
	}

	// 0.3 degrees: beyond the threshold, subscription reopens.
	c.SetArea(models.AreaOfInterest{South: 30.3, West: -15, North: 65, East: 40})
	waitFor(t, "resubscribe after area move", func() bool { return dialer.dialCount() == 2 })

	waitFor(t, "subscribed again", func() bool { return c.State() == models.StateSubscribed })
	var payload struct {
		BBox [][2]float64 `json:"bbox"`
	}
	if err := json.Unmarshal(dialer.conn(1).firstWritten(), &payload); err != nil {
		t.Fatalf("unmarshal second subscribe: %v", err)
	}
	if payload.BBox[0] != [2]float64{30.3, -15} {
		t.Errorf("second subscribe bbox = %v, want new south bound", payload.BBox)
	}
}

func TestControllerSmallMovesAccumulate(t *testing.T) {
	dialer := &fakeDialer{}
	c, _ := testController(t, testUpstreamConfig(), dialer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Serve(ctx) }()

	waitFor(t, "subscribed state", func() bool { return c.State() == models.StateSubscribed })

	// Each step is below the threshold relative to the previous one, but
	// drift is measured against the subscribed area, so the third step
	// crosses the line.
	c.SetArea(models.AreaOfInterest{South: 30.1, West: -15, North: 65, East: 40})
	time.Sleep(20 * time.Millisecond)
	c.SetArea(models.AreaOfInterest{South: 30.18, West: -15, North: 65, East: 40})
	time.Sleep(20 * time.Millisecond)
	if dialer.dialCount() != 1 {
		t.Fatalf("sub-threshold moves caused resubscribe")
	}

	c.SetArea(models.AreaOfInterest{South: 30.25, West: -15, North: 65, East: 40})
	waitFor(t, "resubscribe after accumulated drift", func() bool { return dialer.dialCount() == 2 })
}

func TestControllerManualReconnectCutsBackoffShort(t *testing.T) {
	cfg := testUpstreamConfig()
	cfg.BackoffBase = 10 * time.Minute
	cfg.BackoffCap = 30 * time.Minute

	dialer := &fakeDialer{failures: 1}
	c, _ := testController(t, cfg, dialer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Serve(ctx) }()

	waitFor(t, "backoff state", func() bool { return c.State() == models.StateBackoff })

	c.Reconnect()

	waitFor(t, "immediate retry", func() bool { return dialer.dialCount() == 2 })
	waitFor(t, "subscribed after manual reconnect", func() bool { return c.State() == models.StateSubscribed })
}

func TestControllerStopsOnContextCancel(t *testing.T) {
	dialer := &fakeDialer{}
	c, _ := testController(t, testUpstreamConfig(), dialer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx) }()

	waitFor(t, "subscribed state", func() bool { return c.State() == models.StateSubscribed })

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not stop on cancel")
	}

	if c.State() != models.StateDisconnected {
		t.Errorf("final state = %v, want disconnected", c.State())
	}
}
