// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

// Package metrics provides Prometheus instrumentation for the ingestion
// pipeline, the subscription controller, the vessel store and the
// websocket hub.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zonkeynet/shipwatch/internal/models"
)

var (
	// Ingestion pipeline metrics
	FramesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipwatch_frames_received_total",
			Help: "Total upstream frames received, by frame kind",
		},
		[]string{"kind"}, // "vessel", "status", "error", "malformed", "unknown"
	)

	FramesDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipwatch_frames_discarded_total",
			Help: "Total frames discarded before storage, by reason",
		},
		[]string{"reason"}, // "malformed", "incomplete", "unclassified", "stale_connection"
	)

	VesselsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipwatch_vessels_upserted_total",
			Help: "Total vessel records upserted into the store, by category",
		},
		[]string{"category"},
	)

	VesselsStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shipwatch_vessels_stored",
			Help: "Current number of vessels held in the store",
		},
	)

	// Subscription controller metrics
	SubscriptionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shipwatch_subscription_state",
			Help: "Current subscription state (0=disconnected, 1=connecting, 2=subscribed, 3=backoff)",
		},
	)

	Reconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipwatch_reconnects_total",
			Help: "Total reconnect attempts, by trigger",
		},
		[]string{"trigger"}, // "backoff", "area_change", "manual", "initial"
	)

	ConnectFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shipwatch_connect_failures_total",
			Help: "Total failed upstream connection attempts",
		},
	)

	BackoffDelaySeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shipwatch_backoff_delay_seconds",
			Help: "Current reconnect backoff delay in seconds",
		},
	)

	// View projector metrics
	SnapshotDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shipwatch_snapshot_duration_seconds",
			Help:    "Duration of store snapshot and broadcast in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	SnapshotSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shipwatch_snapshot_size",
			Help:    "Number of vessels in projected snapshots",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// Websocket hub metrics
	HubClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shipwatch_hub_clients",
			Help: "Current number of connected UI websocket clients",
		},
	)

	BroadcastsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipwatch_broadcasts_dropped_total",
			Help: "Total hub broadcasts dropped because the channel was full",
		},
		[]string{"message_type"},
	)

	// Event publisher metrics
	EventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shipwatch_events_published_total",
			Help: "Total vessel events published to NATS",
		},
	)

	EventPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shipwatch_event_publish_errors_total",
			Help: "Total NATS publish failures",
		},
	)
)

// SetSubscriptionState records the controller state in the state gauge.
func SetSubscriptionState(s models.SubscriptionState) {
	SubscriptionState.Set(float64(s))
}
