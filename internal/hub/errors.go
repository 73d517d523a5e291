// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package hub

import (
	"errors"
	"fmt"

	"github.com/tomtom215/beacon/internal/models"
)

var (
	// ErrNotConnected matches any *NotConnectedError via errors.Is.
	ErrNotConnected = errors.New("hub connection is not established")

	// ErrManagerClosed is returned after Close.
	ErrManagerClosed = errors.New("connection manager closed")

	// ErrRateLimited is wrapped by TransportError when the outbound limiter rejects a send.
	ErrRateLimited = errors.New("outbound send rate limit exceeded")

	// ErrTransportNotConnected is returned by transports invoked without a live connection.
	ErrTransportNotConnected = errors.New("transport has no live connection")

	// ErrReconnectExhausted is passed to OnClose when automatic reconnects gave up.
	ErrReconnectExhausted = errors.New("automatic reconnect attempts exhausted")
)

// NotConnectedError is returned by Send outside the Connected state.
type NotConnectedError struct {
	State models.ConnectionState
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("cannot send location: not connected to hub (state: %s)", e.State)
}

// Is reports ErrNotConnected as a match.
func (e *NotConnectedError) Is(target error) bool {
	return target == ErrNotConnected
}

// TransportError wraps a failed or rejected invocation.
type TransportError struct {
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	return "hub transport error: " + e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func newTransportError(err error) *TransportError {
	return &TransportError{Message: err.Error(), Err: err}
}

// ConnectionStartError records a failed start attempt.
type ConnectionStartError struct {
	Attempt int
	Err     error
}

func (e *ConnectionStartError) Error() string {
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e *ConnectionStartError) Unwrap() error {
	return e.Err
}
