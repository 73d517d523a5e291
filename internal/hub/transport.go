// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package hub

import (
	"context"

	"github.com/goccy/go-json"
)

// Hub method names.
const (
	TargetSendLatLon    = "SendLatLon"
	TargetReceiveLatLon = "ReceiveLatLon"
)

// Handlers receives transport callbacks. Any field may be nil.
type Handlers struct {
	// OnEvent is called for every server-to-client invocation.
	OnEvent func(target string, args []json.RawMessage)

	// OnReconnecting is called when a live connection is lost and automatic
	// reconnection begins.
	OnReconnecting func(err error)

	// OnReconnected is called when automatic reconnection succeeded.
	OnReconnected func()

	// OnClose is called when the transport closes on its own: the server
	// closed without allowing reconnect, or reconnect attempts ran out.
	// It is not called for Stop.
	OnClose func(err error)
}

// Transport is the substrate the Manager drives.
type Transport interface {
	// SetHandlers installs callbacks. Called before Start.
	SetHandlers(h Handlers)

	// Start establishes the connection; it returns once the connection is
	// usable or failed.
	Start(ctx context.Context) error

	// Stop closes the connection and stops reconnecting. Idempotent.
	Stop(ctx context.Context) error

	// Invoke calls a hub method and waits for its completion result.
	Invoke(ctx context.Context, target string, args ...any) (json.RawMessage, error)
}
