// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/zonkeynet/shipwatch/internal/logging"
	"github.com/zonkeynet/shipwatch/internal/metrics"
	"github.com/zonkeynet/shipwatch/internal/models"
)

// Message types for WebSocket communication with map clients.
const (
	MessageTypeVessels = "vessels"
	MessageTypeStatus  = "status"
	MessageTypePing    = "ping"
	MessageTypePong    = "pong"
)

// Message represents a WebSocket message.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// StatusData carries feed status text for the UI status line.
type StatusData struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Hub maintains the set of connected map clients and fans vessel
// snapshots and status updates out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	// statusLimiter throttles status-line broadcasts; the feed can emit
	// status text far faster than the UI can usefully display it.
	statusLimiter *rate.Limiter
}

// NewHub creates a hub. Run it with RunWithContext under a supervisor.
func NewHub() *Hub {
	return &Hub{
		broadcast:     make(chan Message, 256),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		clients:       make(map[*Client]bool),
		statusLimiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
	}
}

// String identifies the hub in supervisor logs.
func (h *Hub) String() string { return "websocket-hub" }

// RunWithContext runs the hub until ctx is canceled, then closes all
// clients and returns ctx.Err().
//
// Selection is priority based: shutdown first, then client lifecycle,
// then broadcasts. When Go's select has multiple ready channels it
// picks randomly; the staged selects keep client state consistent
// before any message is fanned out.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: shutdown (non-blocking check).
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		// Priority 2: client lifecycle (non-blocking check).
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		// Priority 3: broadcasts, or block for any event.
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.HubClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.HubClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// broadcastToClients fans a message out in deterministic client order.
// Clients whose send buffer is full are dropped; a stalled browser tab
// must not block snapshot delivery to everyone else.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		logging.Warn().Uint64("client_id", client.id).Msg("dropping slow websocket client")
	}
	if len(toRemove) > 0 {
		metrics.HubClients.Set(float64(len(h.clients)))
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.HubClients.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// BroadcastVessels sends a projected vessel snapshot to all clients.
// Implements the projector's Broadcaster interface.
func (h *Hub) BroadcastVessels(vessels []models.VesselRecord) {
	message := Message{
		Type: MessageTypeVessels,
		Data: vessels,
	}

	select {
	case h.broadcast <- message:
	default:
		metrics.BroadcastsDropped.WithLabelValues(MessageTypeVessels).Inc()
		logging.Warn().Msg("broadcast channel full, dropping vessel snapshot")
	}
}

// BroadcastStatus sends feed status text to all clients, throttled so
// a chatty upstream cannot flood the status line.
func (h *Hub) BroadcastStatus(text string) {
	if !h.statusLimiter.Allow() {
		metrics.BroadcastsDropped.WithLabelValues(MessageTypeStatus).Inc()
		return
	}

	message := Message{
		Type: MessageTypeStatus,
		Data: StatusData{
			Text:      text,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	select {
	case h.broadcast <- message:
	default:
		metrics.BroadcastsDropped.WithLabelValues(MessageTypeStatus).Inc()
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
