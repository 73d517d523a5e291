// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package models

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"
)

// ErrMalformedLocation is returned by ParseInbound when a payload cannot be
// turned into a LocationUpdate.
var ErrMalformedLocation = errors.New("malformed location payload")

// LocationUpdate is one coordinate report received from the hub.
// It is immutable once created by the receive path.
type LocationUpdate struct {
	SenderID   string    `json:"sender_id"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	ReceivedAt time.Time `json:"received_at"`
	SequenceID uint64    `json:"sequence_id"`
}

// InboundLocation is the ReceiveLatLon payload as sent by the hub.
// Pointer fields distinguish a missing coordinate from a zero coordinate.
type InboundLocation struct {
	UserName *string  `json:"userName"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
}

// OutboundLocation is the argument set of a SendLatLon invocation.
type OutboundLocation struct {
	SenderID string
	Lat      float64
	Lon      float64
}

// Args returns the positional invocation arguments (lat, lon, userName).
func (o OutboundLocation) Args() []any {
	return []any{o.Lat, o.Lon, o.SenderID}
}

// ParseInbound decodes a ReceiveLatLon payload. Unknown fields are ignored;
// a missing sender, a missing or non-finite coordinate, or invalid JSON
// yield an error wrapping ErrMalformedLocation.
func ParseInbound(raw []byte) (InboundLocation, error) {
	var in InboundLocation
	if err := json.Unmarshal(raw, &in); err != nil {
		return InboundLocation{}, fmt.Errorf("%w: %v", ErrMalformedLocation, err)
	}
	if err := in.Check(); err != nil {
		return InboundLocation{}, err
	}
	return in, nil
}

// Check verifies that all required fields are present and finite.
func (in InboundLocation) Check() error {
	switch {
	case in.UserName == nil || *in.UserName == "":
		return fmt.Errorf("%w: missing userName", ErrMalformedLocation)
	case in.Lat == nil || math.IsNaN(*in.Lat) || math.IsInf(*in.Lat, 0):
		return fmt.Errorf("%w: missing or invalid lat", ErrMalformedLocation)
	case in.Lon == nil || math.IsNaN(*in.Lon) || math.IsInf(*in.Lon, 0):
		return fmt.Errorf("%w: missing or invalid lon", ErrMalformedLocation)
	}
	return nil
}

// ToUpdate stamps a checked payload with receive metadata.
func (in InboundLocation) ToUpdate(receivedAt time.Time, seq uint64) LocationUpdate {
	return LocationUpdate{
		SenderID:   *in.UserName,
		Lat:        *in.Lat,
		Lon:        *in.Lon,
		ReceivedAt: receivedAt,
		SequenceID: seq,
	}
}
