// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package hub owns Beacon's single logical connection to the remote real-time
hub.

# Components

  - Manager: the connection state machine. It drives a Transport, publishes
    ConnectionStatus to status observers on every transition, turns inbound
    ReceiveLatLon events into LocationUpdates for location observers, and
    exposes Send for outbound SendLatLon invocations.
  - Transport: the opaque substrate (start, stop, invoke, event and
    lifecycle callbacks). SignalRTransport implements it with the SignalR
    JSON hub protocol over gorilla/websocket.
  - ReconnectDelay: the backoff policy used for automatic transport
    reconnects.

# State Machine

	Disconnected --Serve--> Connecting --ok--> Connected
	                        Connecting --err--> Failed --retry delay--> Connecting
	Connected --transport lost--> Reconnecting --ok--> Connected
	Reconnecting --gave up--> Disconnected --retry delay--> Connecting
	Connected --transport closed--> Disconnected

There is no terminal state while Serve runs. Reconnect skips a pending retry
delay. Cancelling the Serve context (or calling Close) stops the transport,
releases the retry timer and leaves the manager Disconnected.

# Concurrency

All transitions happen on the Serve goroutine; transport lifecycle signals
are funnelled to it through a channel so they can never race the
transition that follows a successful start. Status and location callbacks
are serialized by a single dispatch mutex, so observers never run in
parallel and see events in order.

# Errors

  - *NotConnectedError: Send outside the Connected state, the transport is not touched
  - *TransportError: the invocation failed, or was rejected by the rate
    limiter or circuit breaker before reaching the transport
  - *ConnectionStartError: a start attempt failed (surfaced as status, retried)
*/
package hub
