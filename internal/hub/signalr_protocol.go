// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package hub

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// recordSeparator terminates every JSON hub protocol message.
const recordSeparator byte = 0x1e

// Hub protocol message types.
const (
	msgInvocation       = 1
	msgStreamItem       = 2
	msgCompletion       = 3
	msgStreamInvocation = 4
	msgCancelInvocation = 5
	msgPing             = 6
	msgClose            = 7
)

type handshakeRequest struct {
	Protocol string `json:"protocol"`
	Version  int    `json:"version"`
}

type handshakeResponse struct {
	Error string `json:"error,omitempty"`
}

// hubMessage is the union of the fields of every message type we handle.
type hubMessage struct {
	Type           int               `json:"type"`
	InvocationID   string            `json:"invocationId,omitempty"`
	Target         string            `json:"target,omitempty"`
	Arguments      []json.RawMessage `json:"arguments,omitempty"`
	Result         json.RawMessage   `json:"result,omitempty"`
	Error          string            `json:"error,omitempty"`
	AllowReconnect bool              `json:"allowReconnect,omitempty"`
}

type invocationMessage struct {
	Type         int    `json:"type"`
	InvocationID string `json:"invocationId,omitempty"`
	Target       string `json:"target"`
	Arguments    []any  `json:"arguments"`
}

type pingMessage struct {
	Type int `json:"type"`
}

// negotiateResponse is the body of POST {hub}/negotiate.
type negotiateResponse struct {
	ConnectionID        string               `json:"connectionId"`
	ConnectionToken     string               `json:"connectionToken"`
	NegotiateVersion    int                  `json:"negotiateVersion"`
	AvailableTransports []availableTransport `json:"availableTransports"`
	URL                 string               `json:"url,omitempty"`
	AccessToken         string               `json:"accessToken,omitempty"`
	Error               string               `json:"error,omitempty"`
}

type availableTransport struct {
	Transport       string   `json:"transport"`
	TransferFormats []string `json:"transferFormats"`
}

func (n negotiateResponse) supportsWebSockets() bool {
	for _, t := range n.AvailableTransports {
		if t.Transport == "WebSockets" {
			return true
		}
	}
	return false
}

// token returns the value for the id query parameter.
func (n negotiateResponse) token() string {
	if n.NegotiateVersion >= 1 && n.ConnectionToken != "" {
		return n.ConnectionToken
	}
	return n.ConnectionID
}

// encodeFrame marshals v and appends the record separator.
func encodeFrame(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(data, recordSeparator), nil
}

// splitFrames splits a websocket payload into hub protocol records.
// A trailing partial record is an error: the JSON protocol always
// terminates records and never splits them across websocket frames.
func splitFrames(payload []byte) ([][]byte, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	if payload[len(payload)-1] != recordSeparator {
		return nil, fmt.Errorf("incomplete hub message (missing record separator)")
	}
	parts := bytes.Split(payload[:len(payload)-1], []byte{recordSeparator})
	return parts, nil
}
