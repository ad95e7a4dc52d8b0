// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the Chi router with the full middleware stack and
// route tree. Middleware order matters: request ID and real IP first so
// rate limiting keys and log correlation see the resolved client address,
// recoverer before anything that can panic, CORS before route matching.
func NewRouter(handler *Handler, mw *Middleware) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(SecurityHeaders())
	r.Use(mw.CORS())

	r.Route("/api/v1", func(r chi.Router) {
		// Read endpoints: permissive limit, the map polls these.
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit())
			r.Get("/vessels", handler.Vessels)
			r.Get("/status", handler.Status)
			r.Get("/health", handler.Health)
			r.Get("/health/live", handler.HealthLive)
			r.Get("/health/ready", handler.HealthReady)
		})

		// Control endpoints: stricter limit, these mutate shared state.
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimitWrite())
			r.Post("/area", handler.SetArea)
			r.Post("/filter", handler.SetFilter)
			r.Post("/reconnect", handler.Reconnect)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimitWebSocket())
		r.Get("/ws", handler.WebSocket)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
