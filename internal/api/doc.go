// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package api provides the HTTP API for Beacon.

The API exposes the hub connection, the location history and the publish
session over JSON, plus a WebSocket endpoint for live map viewers.

Key Components:

  - Router: chi route table and middleware stack
  - Handler: request handlers, split by concern across handlers_*.go
  - ChiMiddleware: go-chi/cors and go-chi/httprate configured from the
    security section of the configuration

Endpoints:

	GET    /api/v1/health/live          process is up
	GET    /api/v1/health/ready         hub connection established (503 otherwise)
	GET    /api/v1/status               connection, history size, viewers, session
	POST   /api/v1/reconnect            retry a failed or disconnected connection now
	GET    /api/v1/locations            history, oldest first (?limit=N keeps the newest N)
	GET    /api/v1/locations/latest     newest update per sender
	GET    /api/v1/locations/{sender}   newest update for one sender
	DELETE /api/v1/locations            clear history and notify viewers
	GET    /api/v1/session              publish session snapshot
	PUT    /api/v1/session/position     set current coordinates
	PUT    /api/v1/session/sender       set sender identity
	PUT    /api/v1/session/mode         live or mock
	POST   /api/v1/session/simulate     jitter the current position
	POST   /api/v1/publish              one-shot publish
	POST   /api/v1/publish/test         publish a random point near the default position
	POST   /api/v1/autopublish/start    start periodic publishing
	POST   /api/v1/autopublish/stop     stop periodic publishing
	GET    /api/v1/ws                   viewer WebSocket
	GET    /metrics                     Prometheus metrics

Responses use the models.APIResponse envelope. Errors map to status codes:

  - VALIDATION_ERROR: 400
  - NOT_FOUND: 404
  - CONFLICT: 409 (auto-publish without a position)
  - TRANSPORT_ERROR: 502
  - NOT_CONNECTED: 503
*/
package api
