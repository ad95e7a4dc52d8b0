// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/zonkeynet/shipwatch/internal/logging"
	"github.com/zonkeynet/shipwatch/internal/models"
	"github.com/zonkeynet/shipwatch/internal/store"
	ws "github.com/zonkeynet/shipwatch/internal/websocket"
)

// maxRequestBody bounds control-endpoint request bodies.
const maxRequestBody = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// SubscriptionController is the subset of the stream controller the API
// drives: area changes, manual reconnects and state inspection.
type SubscriptionController interface {
	State() models.SubscriptionState
	Area() models.AreaOfInterest
	SetArea(area models.AreaOfInterest)
	Reconnect()
}

// ViewProjector is the subset of the projector the API drives.
type ViewProjector interface {
	Filter() models.FilterSelection
	SetFilter(f models.FilterSelection)
}

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	store       *store.Store
	controller  SubscriptionController
	projector   ViewProjector
	wsHub       *ws.Hub
	corsOrigins []string
	startTime   time.Time
}

// NewHandler creates the API handler set.
func NewHandler(st *store.Store, controller SubscriptionController, projector ViewProjector, hub *ws.Hub, corsOrigins []string) *Handler {
	return &Handler{
		store:       st,
		controller:  controller,
		projector:   projector,
		wsHub:       hub,
		corsOrigins: corsOrigins,
		startTime:   time.Now(),
	}
}

// vesselsData is the payload of GET /api/v1/vessels.
type vesselsData struct {
	Vessels []models.VesselRecord  `json:"vessels"`
	Filter  models.FilterSelection `json:"filter"`
}

// Vessels returns the current filtered vessel snapshot.
//
// Query parameters override the projector's active filter for this
// request only: "categories" is a comma-separated category list, "q" a
// free-text query over name, MMSI and IMO.
func (h *Handler) Vessels(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	filter := h.projector.Filter()
	query := r.URL.Query()

	if query.Has("categories") {
		categories, err := parseCategories(query.Get("categories"))
		if err != nil {
			rw.ValidationFailed(err.Error())
			return
		}
		filter.Categories = categories
	}
	if query.Has("q") {
		filter.Query = query.Get("q")
	}

	vessels := h.store.Snapshot(filter)
	rw.SuccessWithMeta(vesselsData{Vessels: vessels, Filter: filter}, &APIMeta{Count: len(vessels)})
}

// statusData is the payload of GET /api/v1/status.
type statusData struct {
	State         string                 `json:"state"`
	Area          models.AreaOfInterest  `json:"area"`
	Filter        models.FilterSelection `json:"filter"`
	VesselsStored int                    `json:"vessels_stored"`
	Clients       int                    `json:"clients"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
}

// Status reports the subscription state, active area and filter, store
// size and connected websocket client count.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	rw.Success(statusData{
		State:         h.controller.State().String(),
		Area:          h.controller.Area(),
		Filter:        h.projector.Filter(),
		VesselsStored: h.store.Len(),
		Clients:       h.wsHub.GetClientCount(),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	})
}

// SetArea moves the area of interest. The controller decides whether the
// move crosses the resubscription threshold; a sub-threshold move is
// accepted and simply widens nothing.
func (h *Handler) SetArea(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var area models.AreaOfInterest
	if err := decodeJSON(w, r, &area); err != nil {
		rw.BadRequest("invalid area payload: " + err.Error())
		return
	}

	if err := validate.Struct(area); err != nil {
		rw.ValidationFailed("area bounds out of range")
		return
	}
	if err := area.Validate(); err != nil {
		rw.ValidationFailed(err.Error())
		return
	}

	h.controller.SetArea(area)
	logging.Info().Str("area", area.String()).Msg("Area of interest updated via API")

	rw.Success(map[string]interface{}{
		"area":  area,
		"state": h.controller.State().String(),
	})
}

// filterRequest is the payload of POST /api/v1/filter.
type filterRequest struct {
	Categories []string `json:"categories"`
	Query      string   `json:"q"`
}

// SetFilter replaces the projector's active filter. The next snapshot
// reflects the new selection immediately rather than waiting out the
// projection interval.
func (h *Handler) SetFilter(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req filterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest("invalid filter payload: " + err.Error())
		return
	}

	categories, err := parseCategories(strings.Join(req.Categories, ","))
	if err != nil {
		rw.ValidationFailed(err.Error())
		return
	}

	filter := models.FilterSelection{Categories: categories, Query: req.Query}
	h.projector.SetFilter(filter)

	rw.Success(map[string]interface{}{"filter": filter})
}

// Reconnect forces the upstream connection to be torn down and redialed,
// cutting any pending backoff short.
func (h *Handler) Reconnect(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	h.controller.Reconnect()
	logging.Info().Msg("Manual reconnect requested via API")

	rw.Success(map[string]interface{}{"state": h.controller.State().String()})
}

// healthData is the payload of the health endpoints.
type healthData struct {
	Status        string `json:"status"`
	UpstreamState string `json:"upstream_state"`
	VesselsStored int    `json:"vessels_stored"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Health reports overall service health. The service is healthy whenever
// it can serve snapshots; upstream connectivity is reported but does not
// fail the check, since the store remains valid across reconnects.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	rw.Success(healthData{
		Status:        "ok",
		UpstreamState: h.controller.State().String(),
		VesselsStored: h.store.Len(),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	})
}

// HealthLive is the liveness probe.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// HealthReady is the readiness probe.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{
		"status":         "ready",
		"upstream_state": h.controller.State().String(),
	})
}

// WebSocket upgrades the connection and hands it to the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		NewResponseWriter(w, r).Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "websocket service unavailable")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow clients.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates the Origin header against the configured
// CORS origins. Non-browser clients omit Origin and are allowed.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range h.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", origin).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// decodeJSON decodes a bounded request body, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// parseCategories parses a comma-separated category list. Unknown names
// are an error here, unlike config loading where they are dropped: an API
// caller sending "militray" should learn about the typo.
func parseCategories(raw string) ([]models.Category, error) {
	var out []models.Category
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		c := models.ParseCategory(name)
		if c == models.CategoryNone {
			return nil, fmt.Errorf("unknown category %q", name)
		}
		out = append(out, c)
	}
	return out, nil
}
