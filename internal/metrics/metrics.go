// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Hub Connection Metrics
	HubConnectionState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "beacon_hub_connection_state",
			Help: "1 for the current hub connection state, 0 for all others",
		},
		[]string{"state"},
	)

	HubStateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_hub_state_transitions_total",
			Help: "Total number of hub connection state transitions",
		},
		[]string{"from_state", "to_state"},
	)

	HubConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_hub_connect_attempts_total",
			Help: "Total number of hub connection start attempts",
		},
		[]string{"result"}, // success, failure
	)

	HubReconnectAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_hub_reconnect_attempts_total",
			Help: "Total number of automatic transport reconnect attempts",
		},
	)

	HubSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_hub_sends_total",
			Help: "Total number of SendLatLon invocations by result",
		},
		[]string{"result"}, // success, not_connected, transport_error, rate_limited, breaker_open
	)

	HubSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "beacon_hub_send_duration_seconds",
			Help:    "Duration of SendLatLon invocations in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	LocationsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_locations_received_total",
			Help: "Total number of location updates received from the hub",
		},
	)

	LocationsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_locations_rejected_total",
			Help: "Total number of malformed inbound location payloads",
		},
	)

	// Publish Pipeline Metrics
	Publishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_publishes_total",
			Help: "Total number of publish operations by mode and result",
		},
		[]string{"mode", "result"}, // mode: live, mock, simulated; result: success, failure, invalid
	)

	AutoPublishActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "beacon_auto_publish_active",
			Help: "1 while the auto-publish task is running",
		},
	)

	AutoPublishTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_auto_publish_ticks_total",
			Help: "Total number of auto-publish ticks by result",
		},
		[]string{"result"},
	)

	// History Metrics
	HistorySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "beacon_history_entries",
			Help: "Current number of entries in the location history",
		},
	)

	HistorySenders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "beacon_history_senders",
			Help: "Current number of distinct senders with a latest location",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active viewer WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages broadcast to viewers",
		},
		[]string{"message_type"},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Relay Metrics
	RelayPublishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_relay_publishes_total",
			Help: "Total number of updates mirrored to NATS by result",
		},
		[]string{"result"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// knownStates mirrors models.AllConnectionStates; kept as strings so this
// package has no internal imports.
var knownStates = []string{"disconnected", "connecting", "connected", "reconnecting", "failed"}

// RecordHubTransition records a state transition and sets the state gauge
// so that exactly one state reads 1.
func RecordHubTransition(from, to string) {
	HubStateTransitions.WithLabelValues(from, to).Inc()
	for _, s := range knownStates {
		v := 0.0
		if s == to {
			v = 1
		}
		HubConnectionState.WithLabelValues(s).Set(v)
	}
}

// RecordConnectAttempt records the outcome of one start attempt.
func RecordConnectAttempt(err error) {
	if err != nil {
		HubConnectAttempts.WithLabelValues("failure").Inc()
		return
	}
	HubConnectAttempts.WithLabelValues("success").Inc()
}

// RecordHubSend records a SendLatLon outcome.
func RecordHubSend(result string, duration time.Duration) {
	HubSends.WithLabelValues(result).Inc()
	if result == "success" || result == "transport_error" {
		HubSendDuration.Observe(duration.Seconds())
	}
}

// RecordPublish records a publish outcome.
func RecordPublish(mode, result string) {
	Publishes.WithLabelValues(mode, result).Inc()
}

// RecordAutoPublishTick records one auto-publish tick.
func RecordAutoPublishTick(err error) {
	if err != nil {
		AutoPublishTicks.WithLabelValues("failure").Inc()
		return
	}
	AutoPublishTicks.WithLabelValues("success").Inc()
}

// SetAutoPublishActive sets the auto-publish gauge.
func SetAutoPublishActive(active bool) {
	if active {
		AutoPublishActive.Set(1)
		return
	}
	AutoPublishActive.Set(0)
}

// UpdateHistory sets the history gauges.
func UpdateHistory(entries, senders int) {
	HistorySize.Set(float64(entries))
	HistorySenders.Set(float64(senders))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRelayPublish records one NATS relay publish.
func RecordRelayPublish(err error) {
	if err != nil {
		RelayPublishes.WithLabelValues("failure").Inc()
		return
	}
	RelayPublishes.WithLabelValues("success").Inc()
}

// RecordRelayDropped records an update the relay could not queue.
func RecordRelayDropped() {
	RelayPublishes.WithLabelValues("dropped").Inc()
}

// RecordBreakerRequest records one call through a circuit breaker.
// result is "success", "failure" or "rejected".
func RecordBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordBreakerTransition records a gobreaker state change. States use the
// gobreaker String() names: closed, half-open, open.
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
