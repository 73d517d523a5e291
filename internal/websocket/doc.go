// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package websocket fans received locations and connection status out to
browser viewers.

Key Components:

  - Hub: owns the set of viewer clients and broadcasts messages to them
  - Client: one viewer connection with a read pump and a write pump
  - Message: the typed envelope written to viewers

Architecture:

	hub.Manager --location / status observers--> Hub --broadcast--> Client...

Each client has two goroutines:
  - readPump: reads viewer messages, answers application pings
  - writePump: writes queued messages and protocol pings

A client whose send buffer is full is dropped rather than slowing the
broadcast for everyone else.

Message Types:

  - snapshot: sent once on connect (connection status and latest locations)
  - location: one received LocationUpdate
  - connection_status: a ConnectionStatus transition
  - history_cleared: the history store was cleared
  - ping / pong: application keep-alive initiated by the viewer

Usage:

	hub := websocket.NewHub()
	hub.SetSnapshot(func() websocket.Message { ... })
	supervisor.Add(hub)

	manager.SubscribeLocations(hub.BroadcastLocation)
	manager.SubscribeStatus(hub.BroadcastStatus)

	r.Get("/api/v1/ws", handler.WebSocket)

Thread Safety:

All Hub methods are safe for concurrent use. Broadcast methods never block:
when the broadcast queue is full the message is dropped and counted.
*/
package websocket
