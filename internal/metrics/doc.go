// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package metrics provides Prometheus metrics for Beacon.

Metrics are registered with the default registry via promauto and exposed at
/metrics by the API router.

# Available Metrics

Hub Connection:
  - beacon_hub_connection_state{state}: 1 for the current state
  - beacon_hub_state_transitions_total{from_state,to_state}
  - beacon_hub_connect_attempts_total{result}
  - beacon_hub_reconnect_attempts_total
  - beacon_hub_sends_total{result}
  - beacon_hub_send_duration_seconds
  - beacon_locations_received_total
  - beacon_locations_rejected_total

Publishing:
  - beacon_publishes_total{mode,result}
  - beacon_auto_publish_active
  - beacon_auto_publish_ticks_total{result}

History:
  - beacon_history_entries
  - beacon_history_senders

HTTP and WebSocket:
  - api_requests_total{method,endpoint,status_code}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests
  - websocket_connections
  - websocket_messages_sent_total{message_type}
  - websocket_errors_total{error_type}

Relay and Circuit Breakers:
  - beacon_relay_publishes_total{result}
  - circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_state_transitions_total{name,from_state,to_state}
*/
package metrics
