// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package relay mirrors received location updates onto NATS.

Every LocationUpdate observed from the hub connection manager is published
to the subject

	<prefix>.<sender>

where the sender ID is reduced to NATS-safe token characters (anything
outside A-Z, a-z, 0-9, '_' and '-' becomes '_'). The payload is the JSON
encoding of the update; the sender and sequence ID are also carried as
message metadata (NATS headers).

Key Components:

  - Publisher: Watermill publisher wrapped in a gobreaker circuit breaker
  - Forwarder: buffered, non-blocking observer that feeds the Publisher
  - EmbeddedServer: in-process NATS server for single-binary deployments
  - WatermillLogger: zerolog adapter for Watermill and the NATS server

Architecture:

	hub.Manager --SubscribeLocations--> Forwarder.Observe
	                                        |
	                                   (queue, drop when full)
	                                        v
	                              Forwarder.Serve --> Publisher --> NATS

The relay never slows the receive path: when the queue is full the update
is dropped and counted in beacon_relay_publishes_total{result="dropped"}.
Core NATS is used (JetStream disabled); the relay is a live mirror, not a
durable log.
*/
package relay
