// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package models

import "time"

// APIResponse is the envelope of every JSON response served by the API.
//
// Status is "success" (see Data) or "error" (see Error).
//
//	{
//	  "status": "error",
//	  "error": {"code": "NOT_CONNECTED", "message": "hub connection is not established"},
//	  "metadata": {"timestamp": "2026-01-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Count     *int      `json:"count,omitempty"`
}

// APIError carries a machine-readable code and a human-readable message.
//
// Codes used by Beacon:
//   - VALIDATION_ERROR: bad publish input (400)
//   - NOT_FOUND: no update for the requested sender (404)
//   - NOT_CONNECTED: hub connection not established (503)
//   - TRANSPORT_ERROR: hub rejected or failed the invocation (502)
//   - CONFLICT: auto-publish without a position (409)
//   - INTERNAL_ERROR: anything else (500)
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// StatusResponse is served by GET /api/v1/status.
type StatusResponse struct {
	Connection    ConnectionStatus `json:"connection"`
	HistoryLength int              `json:"history_length"`
	HistoryCap    int              `json:"history_capacity"`
	Viewers       int              `json:"viewers"`
	Session       PublishSession   `json:"session"`
}
