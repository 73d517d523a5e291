// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package hub

import "time"

const (
	backoffBase = time.Second
	backoffMax  = 30 * time.Second
)

// ReconnectDelay returns the wait before automatic reconnect attempt number
// attempt (0-based): 0 for the first attempt, then min(1s * 2^attempt, 30s).
//
//	0 -> 0s, 1 -> 2s, 2 -> 4s, 3 -> 8s, 4 -> 16s, 5+ -> 30s
func ReconnectDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if attempt >= 5 {
		return backoffMax
	}
	d := backoffBase << uint(attempt)
	if d > backoffMax {
		return backoffMax
	}
	return d
}

// BackoffFunc maps a 0-based reconnect attempt to a delay.
type BackoffFunc func(attempt int) time.Duration
