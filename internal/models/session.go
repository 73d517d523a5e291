// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package models

import (
	"fmt"
	"strings"
	"time"
)

// PublishMode selects whether publishes reach the hub.
type PublishMode string

const (
	// ModeLive sends publishes to the hub when connected.
	ModeLive PublishMode = "live"
	// ModeMock simulates publishes locally and jitters auto-published coordinates.
	ModeMock PublishMode = "mock"
)

// ParsePublishMode parses a case-insensitive mode name.
func ParsePublishMode(s string) (PublishMode, error) {
	switch PublishMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLive:
		return ModeLive, nil
	case ModeMock:
		return ModeMock, nil
	default:
		return "", fmt.Errorf("unknown publish mode %q (expected live or mock)", s)
	}
}

// PublishSession is a point-in-time snapshot of the publisher's session.
type PublishSession struct {
	SenderID           string      `json:"sender_id"`
	CurrentLat         *float64    `json:"current_lat,omitempty"`
	CurrentLon         *float64    `json:"current_lon,omitempty"`
	AutoPublishEnabled bool        `json:"auto_publish_enabled"`
	AutoPublishEvery   string      `json:"auto_publish_interval,omitempty"`
	Mode               PublishMode `json:"mode"`
	SentCount          uint64      `json:"sent_count"`
	FailedCount        uint64      `json:"failed_count"`
	LastSentAt         *time.Time  `json:"last_sent_at,omitempty"`
}

// HasPosition reports whether both coordinates are set.
func (s PublishSession) HasPosition() bool {
	return s.CurrentLat != nil && s.CurrentLon != nil
}
