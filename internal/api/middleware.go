// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// Middleware bundles the production middleware factories built from the
// server configuration: CORS via go-chi/cors and per-IP rate limiting
// via go-chi/httprate.
type Middleware struct {
	corsOrigins []string
	cors        func(http.Handler) http.Handler

	rateLimitReqs     int
	rateLimitWindow   time.Duration
	rateLimitDisabled bool
}

// NewMiddleware creates the middleware factories for the given CORS
// origins and rate limit settings. A zero window or request count
// falls back to 300 requests per minute.
func NewMiddleware(corsOrigins []string, rateLimitReqs int, rateLimitWindow time.Duration, rateLimitDisabled bool) *Middleware {
	if rateLimitReqs <= 0 {
		rateLimitReqs = 300
	}
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           86400,
	})

	return &Middleware{
		corsOrigins:       corsOrigins,
		cors:              corsHandler,
		rateLimitReqs:     rateLimitReqs,
		rateLimitWindow:   rateLimitWindow,
		rateLimitDisabled: rateLimitDisabled,
	}
}

// CORS returns the Chi-compatible CORS middleware.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the default per-IP rate limiting middleware.
func (m *Middleware) RateLimit() func(http.Handler) http.Handler {
	if m.rateLimitDisabled {
		return passthrough
	}
	return httprate.Limit(
		m.rateLimitReqs,
		m.rateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

// RateLimitWrite returns a stricter limiter for the control endpoints
// (area, filter, reconnect). A live map pans often, so the limit stays
// interactive while still bounding resubscription churn per client.
func (m *Middleware) RateLimitWrite() func(http.Handler) http.Handler {
	if m.rateLimitDisabled {
		return passthrough
	}
	return httprate.LimitByIP(60, time.Minute)
}

// RateLimitWebSocket bounds the upgrade rate, not the message rate.
func (m *Middleware) RateLimitWebSocket() func(http.Handler) http.Handler {
	if m.rateLimitDisabled {
		return passthrough
	}
	return httprate.LimitByIP(30, time.Minute)
}

func passthrough(next http.Handler) http.Handler {
	return next
}

// SecurityHeaders adds baseline security headers to API responses.
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, r)
		})
	}
}
