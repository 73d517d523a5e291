// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/beacon/internal/models"
	"github.com/tomtom215/beacon/internal/publisher"
	ws "github.com/tomtom215/beacon/internal/websocket"
)

// ConnectionManager is the part of *hub.Manager the API uses.
type ConnectionManager interface {
	Status() models.ConnectionStatus
	Reconnect(ctx context.Context) error
}

// LocationHistory is the part of *history.Store the API uses.
type LocationHistory interface {
	All() []models.LocationUpdate
	Latest() []models.LocationUpdate
	LatestFor(sender string) (models.LocationUpdate, bool)
	Clear()
	Len() int
	Capacity() int
}

// PublishPipeline is the part of *publisher.Pipeline the API uses.
type PublishPipeline interface {
	PublishOnce(ctx context.Context, req publisher.PublishRequest) (publisher.Result, error)
	SendTestLocation(ctx context.Context) (publisher.Result, error)
	SimulateMovement() publisher.Position
	SetPosition(lat, lon float64) error
	SetSender(senderID string) error
	SetMode(mode models.PublishMode)
	Session() models.PublishSession
	StartAutoPublish(senderID string, interval time.Duration) error
	StopAutoPublish()
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: response and request helpers
//   - handlers_health.go: health and status endpoints
//   - handlers_locations.go: location history endpoints
//   - handlers_session.go: publish session and publishing endpoints
//   - handlers_websocket.go: viewer WebSocket endpoint
type Handler struct {
	manager   ConnectionManager
	history   LocationHistory
	pipeline  PublishPipeline
	wsHub     *ws.Hub
	upgrader  websocket.Upgrader
	startTime time.Time
}

// NewHandler creates a handler. allowedOrigins restricts WebSocket upgrades
// the same way CORS restricts API calls; "*" allows any origin.
func NewHandler(manager ConnectionManager, history LocationHistory, pipeline PublishPipeline, wsHub *ws.Hub, allowedOrigins []string) *Handler {
	return &Handler{
		manager:  manager,
		history:  history,
		pipeline: pipeline,
		wsHub:    wsHub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		startTime: time.Now(),
	}
}
