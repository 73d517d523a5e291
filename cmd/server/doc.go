// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package main is the entry point for the Beacon server.

Beacon keeps a connection to a SignalR location hub, records every location
the hub broadcasts, publishes this relay's own position to the hub, and
fans received locations out to browser viewers and, optionally, to NATS.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("beacon")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── hub-connection-manager (SignalR connection lifecycle)
	│   ├── viewer-hub (WebSocket fan-out)
	│   ├── publish-pipeline (auto-publish task)
	│   └── nats-relay (optional, RELAY_ENABLED=true)
	└── APISupervisor ("api-layer")
	    └── http-server (chi router)

Received updates flow one way:

	hub.Manager ──► history.Store.Record
	            ──► websocket.Hub.BroadcastLocation
	            ──► relay.Relay.Observe (queued, published to NATS)

# Configuration

Configuration is loaded via Koanf v2 (environment > config file > defaults):

	HUB_URL=https://tech-test.raintor.com/Hub
	HUB_RETRY_DELAY=5s
	HISTORY_CAPACITY=50
	PUBLISH_MODE=live            # live or mock
	PUBLISH_SENDER_ID=rider@example.com
	PUBLISH_AUTO_START=false
	HTTP_PORT=8080
	CORS_ORIGINS=https://map.example.com
	RELAY_ENABLED=false
	NATS_URL=nats://127.0.0.1:4222
	NATS_EMBEDDED=false
	LOG_LEVEL=info
	LOG_FORMAT=json

When a config file is in use (CONFIG_PATH or ./config.yaml), changes to its
logging level are applied without a restart.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
server, the auto-publish task, the viewer hub and the relay, and the hub
connection is closed before exit.
*/
package main
