// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package websocket

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zonkeynet/shipwatch/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // clients only send ping frames
)

// clientIDCounter generates unique, monotonically increasing IDs so the
// hub can iterate clients in a stable order.
var clientIDCounter atomic.Uint64

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, 256),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// readPump consumes messages from the connection. Map clients only ever
// send pings; everything else is read and dropped to keep the
// connection's control frames flowing.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			c.logReadClose(err)
			break
		}

		if msg.Type == MessageTypePing {
			pong := Message{Type: MessageTypePong}
			select {
			case c.send <- pong:
			default:
			}
		}
	}
}

// logReadClose classifies why the read loop ended. Map clients come and
// go constantly, so expected departures log at debug and only genuinely
// abnormal closes make noise.
func (c *Client) logReadClose(err error) {
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		// Read deadline expiry or a torn TCP connection.
		logging.Debug().Err(err).Uint64("client_id", c.id).Msg("websocket read ended")
		return
	}

	switch closeErr.Code {
	case websocket.CloseNormalClosure, websocket.CloseGoingAway:
		logging.Debug().Uint64("client_id", c.id).Msg("map client disconnected")
	case websocket.CloseNoStatusReceived:
		// Browsers navigating away often skip the close handshake.
		logging.Debug().Uint64("client_id", c.id).Msg("map client left without close status")
	default:
		logging.Warn().
			Int("code", closeErr.Code).
			Str("reason", closeErr.Text).
			Uint64("client_id", c.id).
			Msg("websocket closed abnormally")
	}
}

// writePump pumps hub messages to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the channel.
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Error().Err(err).Msg("failed to write close message")
				}
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Msg("failed to write JSON message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
