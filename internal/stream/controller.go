// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/zonkeynet/shipwatch/internal/config"
	"github.com/zonkeynet/shipwatch/internal/logging"
	"github.com/zonkeynet/shipwatch/internal/metrics"
	"github.com/zonkeynet/shipwatch/internal/models"
)

// Conn is the subset of *websocket.Conn the controller needs. Tests
// substitute an in-memory implementation.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// Dialer opens upstream WebSocket connections.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string) (Conn, error)
}

// gorillaDialer is the production Dialer.
type gorillaDialer struct {
	handshakeTimeout time.Duration
}

func (d gorillaDialer) DialContext(ctx context.Context, urlStr string) (Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout:  d.handshakeTimeout,
		EnableCompression: true,
	}

	conn, resp, err := dialer.DialContext(ctx, urlStr, nil)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return conn, nil
}

type commandKind int

const (
	cmdSetArea commandKind = iota
	cmdReconnect
)

type command struct {
	kind commandKind
	area models.AreaOfInterest
}

type readResult struct {
	gen  uint64
	data []byte
	err  error
}

// Reconnect triggers, used as metric labels and in logs.
const (
	triggerInitial    = "initial"
	triggerBackoff    = "backoff"
	triggerAreaChange = "area_change"
	triggerManual     = "manual"
)

// Controller owns the upstream subscription lifecycle. It runs a single
// state machine goroutine (Serve) that dials, subscribes, reads frames
// into the pipeline and reconnects forever.
//
// Reconnection uses exponential backoff starting at the configured base
// and doubling per failed attempt up to the cap; a successful open
// resets the delay. A manual reconnect or a qualifying area change
// short-circuits any backoff wait and resets the delay too.
//
// Area changes only reopen the subscription when at least one bound
// moved beyond the configured threshold relative to the area of the
// active subscription. Smaller moves are dropped, so drift accumulates
// against the subscribed area rather than the last request.
type Controller struct {
	cfg       config.UpstreamConfig
	threshold float64
	dialect   Dialect
	pipeline  *Pipeline
	dialer    Dialer
	breaker   *gobreaker.CircuitBreaker[Conn]
	onStatus  StatusFunc

	commands chan command
	frames   chan readResult
	gen      atomic.Uint64

	mu    sync.RWMutex
	state models.SubscriptionState
	area  models.AreaOfInterest
}

// NewController builds a controller subscribed to the given startup area.
// onStatus may be nil.
func NewController(cfg config.UpstreamConfig, moveThreshold float64, area models.AreaOfInterest, dialect Dialect, pipeline *Pipeline, onStatus StatusFunc) *Controller {
	c := &Controller{
		cfg:       cfg,
		threshold: moveThreshold,
		dialect:   dialect,
		pipeline:  pipeline,
		dialer:    gorillaDialer{handshakeTimeout: cfg.HandshakeTimeout},
		onStatus:  onStatus,
		commands:  make(chan command, 16),
		frames:    make(chan readResult, 64),
		state:     models.StateDisconnected,
		area:      area,
	}

	c.breaker = gobreaker.NewCircuitBreaker[Conn](gobreaker.Settings{
		Name:        "upstream-feed",
		MaxRequests: 1,
		Timeout:     cfg.BackoffCap,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.BreakerThreshold == 0 {
				return false
			}
			return counts.ConsecutiveFailures >= cfg.BreakerThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Upstream circuit breaker state change")
		},
	})

	return c
}

// String identifies the controller in supervisor logs.
func (c *Controller) String() string { return "stream-controller" }

// State returns the current subscription state.
func (c *Controller) State() models.SubscriptionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Area returns the area of the current (or pending) subscription.
func (c *Controller) Area() models.AreaOfInterest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.area
}

// SetArea requests a subscription move. The subscription is only
// reopened when the new area differs from the subscribed one by more
// than the move threshold on at least one bound.
func (c *Controller) SetArea(area models.AreaOfInterest) {
	select {
	case c.commands <- command{kind: cmdSetArea, area: area}:
	default:
		logging.Warn().Str("area", area.String()).Msg("Area command dropped, controller busy")
	}
}

// Reconnect forces the subscription to reopen immediately, resetting
// any backoff in progress.
func (c *Controller) Reconnect() {
	select {
	case c.commands <- command{kind: cmdReconnect}:
	default:
		logging.Warn().Msg("Reconnect command dropped, controller busy")
	}
}

// Serve runs the subscription state machine until ctx is canceled.
// It never returns nil before that: connection loss is handled
// internally with backoff, not by crashing the service.
func (c *Controller) Serve(ctx context.Context) error {
	delay := c.cfg.BackoffBase
	trigger := triggerInitial

	for {
		if ctx.Err() != nil {
			c.setState(models.StateDisconnected)
			return ctx.Err()
		}

		c.setState(models.StateConnecting)
		metrics.Reconnects.WithLabelValues(trigger).Inc()

		conn, err := c.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.setState(models.StateDisconnected)
				return ctx.Err()
			}

			metrics.ConnectFailures.Inc()
			if errors.Is(err, gobreaker.ErrOpenState) {
				logging.Warn().Dur("retry_in", delay).Msg("Upstream circuit open, connect attempt skipped")
			} else {
				logging.Warn().Err(err).Dur("retry_in", delay).Msg("Upstream connect failed")
			}
			c.status("Disconnected. Retrying…")

			next, immediate := c.backoff(ctx, delay)
			if ctx.Err() != nil {
				c.setState(models.StateDisconnected)
				return ctx.Err()
			}
			if immediate {
				delay = c.cfg.BackoffBase
				trigger = next
				continue
			}
			delay = nextDelay(delay, c.cfg.BackoffCap)
			trigger = triggerBackoff
			continue
		}

		// Successful open resets the backoff ladder.
		delay = c.cfg.BackoffBase
		metrics.BackoffDelaySeconds.Set(0)
		c.setState(models.StateSubscribed)
		c.status("Connected. Subscription sent.")

		trigger = c.runConnection(ctx, conn)
		c.setState(models.StateDisconnected)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if trigger == triggerBackoff {
			c.status("Disconnected. Retrying…")
			next, immediate := c.backoff(ctx, delay)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if immediate {
				trigger = next
				delay = c.cfg.BackoffBase
			} else {
				delay = nextDelay(delay, c.cfg.BackoffCap)
			}
		}
	}
}

func nextDelay(delay, limit time.Duration) time.Duration {
	delay *= 2
	if delay > limit {
		delay = limit
	}
	return delay
}

// connect dials through the circuit breaker and sends the subscription
// payload for the current area.
func (c *Controller) connect(ctx context.Context) (Conn, error) {
	conn, err := c.breaker.Execute(func() (Conn, error) {
		dialCtx := ctx
		if c.cfg.HandshakeTimeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
			defer cancel()
		}
		return c.dialer.DialContext(dialCtx, c.cfg.URL)
	})
	if err != nil {
		return nil, err
	}

	area := c.Area()
	payload, err := c.dialect.SubscribePayload(area, c.cfg.MessageTypes, c.cfg.MMSIFilter)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("build subscribe payload: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send subscribe payload: %w", err)
	}

	logging.Info().
		Str("dialect", c.dialect.Name()).
		Str("area", area.String()).
		Msg("Subscribed to upstream feed")
	return conn, nil
}

// runConnection pumps frames from an open connection until it drops or
// a command forces a resubscription. It returns the trigger for the
// next connect attempt.
func (c *Controller) runConnection(ctx context.Context, conn Conn) string {
	defer conn.Close()

	gen := c.gen.Add(1)
	go c.readLoop(ctx, conn, gen)

	var ping <-chan time.Time
	if c.cfg.PingInterval > 0 {
		ticker := time.NewTicker(c.cfg.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return triggerBackoff

		case cmd := <-c.commands:
			if next, ok := c.applyCommand(cmd); ok {
				return next
			}

		case <-ping:
			deadline := time.Now().Add(10 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				logging.Warn().Err(err).Msg("Upstream ping failed")
				return triggerBackoff
			}

		case r := <-c.frames:
			if r.gen != gen {
				metrics.FramesDiscarded.WithLabelValues("stale_connection").Inc()
				continue
			}
			if r.err != nil {
				if websocket.IsCloseError(r.err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logging.Info().Msg("Upstream closed the connection")
				} else {
					logging.Warn().Err(r.err).Msg("Upstream read error")
				}
				return triggerBackoff
			}
			c.pipeline.HandleFrame(r.data)
		}
	}
}

// applyCommand handles a command during an active connection. It
// returns the resubscription trigger and true when the connection must
// be reopened.
func (c *Controller) applyCommand(cmd command) (string, bool) {
	switch cmd.kind {
	case cmdReconnect:
		c.status("Reconnecting…")
		return triggerManual, true

	case cmdSetArea:
		if !cmd.area.MovedBeyond(c.Area(), c.threshold) {
			return "", false
		}
		c.setArea(cmd.area)
		logging.Info().Str("area", cmd.area.String()).Msg("Watch area moved, resubscribing")
		return triggerAreaChange, true
	}
	return "", false
}

// backoff waits out a reconnect delay. It returns early with a trigger
// when a manual reconnect or qualifying area change arrives; both reset
// the delay ladder.
func (c *Controller) backoff(ctx context.Context, delay time.Duration) (string, bool) {
	c.setState(models.StateBackoff)
	metrics.BackoffDelaySeconds.Set(delay.Seconds())

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", false
		case <-timer.C:
			return "", false
		case cmd := <-c.commands:
			if next, ok := c.applyCommand(cmd); ok {
				return next, true
			}
		case r := <-c.frames:
			// Drain leftovers from the previous connection's reader.
			if r.gen != c.gen.Load() {
				metrics.FramesDiscarded.WithLabelValues("stale_connection").Inc()
			}
		}
	}
}

// readLoop reads frames from one connection into the shared frames
// channel, tagged with the connection generation so the state machine
// can drop leftovers from a dead connection.
func (c *Controller) readLoop(ctx context.Context, conn Conn, gen uint64) {
	for {
		if c.cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		}

		_, data, err := conn.ReadMessage()

		select {
		case c.frames <- readResult{gen: gen, data: data, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

func (c *Controller) setArea(area models.AreaOfInterest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.area = area
}

func (c *Controller) setState(s models.SubscriptionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	metrics.SetSubscriptionState(s)
}

func (c *Controller) status(text string) {
	if c.onStatus != nil {
		c.onStatus(text)
	}
}
