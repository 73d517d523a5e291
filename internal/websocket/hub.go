// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/metrics"
	"github.com/tomtom215/beacon/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline means the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for viewer communication.
const (
	MessageTypeSnapshot         = "snapshot"
	MessageTypeLocation         = "location"
	MessageTypeConnectionStatus = "connection_status"
	MessageTypeHistoryCleared   = "history_cleared"
	MessageTypePing             = "ping"
	MessageTypePong             = "pong"
)

const broadcastBufferSize = 256

// Message is the envelope written to viewers.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// SnapshotData is the payload of the snapshot message.
type SnapshotData struct {
	Connection models.ConnectionStatus `json:"connection"`
	Latest     []models.LocationUpdate `json:"latest"`
	Session    *models.PublishSession  `json:"session,omitempty"`
}

// HistoryClearedData is the payload of the history_cleared message.
type HistoryClearedData struct {
	Timestamp string `json:"timestamp"`
}

// Hub maintains the set of viewer clients and broadcasts messages to them.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]bool
	broadcast chan Message
	snapshot  func() Message
}

// NewHub creates a hub. Run it with Serve.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]bool),
		broadcast: make(chan Message, broadcastBufferSize),
	}
}

// SetSnapshot installs the function producing the message a viewer receives
// right after connecting. fn runs with the hub lock held; it may broadcast
// but must not register, unregister or count clients.
func (h *Hub) SetSnapshot(fn func() Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = fn
}

// Register adds a client and queues its snapshot. The snapshot is built
// under the same lock as broadcast delivery, so every update lands in the
// snapshot, in the client's queue, or both; none falls between them.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.snapshot != nil {
		c.send <- h.snapshot()
	}
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("websocket client connected")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("websocket client disconnected")
}

// Serve runs the broadcast loop until ctx is cancelled, then closes every
// client. It implements suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		// Shutdown takes priority over pending broadcasts.
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (h *Hub) String() string {
	return "viewer-hub"
}

// logGracefulShutdown closes every client and logs the shutdown. ctx.Err()
// is not logged as an error: cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "viewer-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// sortedClientsLocked returns clients in ID order. h.mu must be held.
func (h *Hub) sortedClientsLocked() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients delivers message to every client in ID order. Clients
// whose buffer is full are dropped.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var toRemove []*Client
	for _, client := range h.sortedClientsLocked() {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.WSErrors.WithLabelValues("slow_client").Inc()
		logging.Warn().Uint64("client_id", client.id).Msg("dropping slow websocket client")
	}
	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.sortedClientsLocked() {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
}

// BroadcastJSON queues a message for every client.
func (h *Hub) BroadcastJSON(messageType string, data any) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		metrics.WSErrors.WithLabelValues("broadcast_full").Inc()
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// BroadcastLocation is a location observer.
func (h *Hub) BroadcastLocation(update models.LocationUpdate) {
	h.BroadcastJSON(MessageTypeLocation, update)
}

// BroadcastStatus is a connection status observer.
func (h *Hub) BroadcastStatus(status models.ConnectionStatus) {
	h.BroadcastJSON(MessageTypeConnectionStatus, status)
}

// BroadcastHistoryCleared tells viewers to clear their map.
func (h *Hub) BroadcastHistoryCleared() {
	h.BroadcastJSON(MessageTypeHistoryCleared, HistoryClearedData{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
