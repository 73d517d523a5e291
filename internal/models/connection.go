// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package models

import "time"

// ConnectionState is the lifecycle state of the hub connection.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
	StateFailed       ConnectionState = "failed"
)

// AllConnectionStates lists every state, in declaration order.
var AllConnectionStates = []ConnectionState{
	StateDisconnected,
	StateConnecting,
	StateConnected,
	StateReconnecting,
	StateFailed,
}

// String implements fmt.Stringer.
func (s ConnectionState) String() string {
	return string(s)
}

// ConnectionStatus is delivered to status observers on every transition.
type ConnectionStatus struct {
	State         ConnectionState `json:"state"`
	StatusMessage string          `json:"status_message,omitempty"`
	LastError     string          `json:"last_error,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// IsConnected reports whether messages can be sent in this state.
func (s ConnectionStatus) IsConnected() bool {
	return s.State == StateConnected
}
