// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package hub

import (
	"testing"
	"time"
)

func TestReconnectDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{-1, 0},
		{0, 0},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{6, 30 * time.Second},
		{100, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := ReconnectDelay(tt.attempt); got != tt.want {
			t.Errorf("ReconnectDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestReconnectDelay_NeverExceedsCap(t *testing.T) {
	t.Parallel()

	prev := time.Duration(0)
	for attempt := 0; attempt < 64; attempt++ {
		d := ReconnectDelay(attempt)
		if d > backoffMax {
			t.Fatalf("attempt %d: delay %v exceeds cap", attempt, d)
		}
		if d < prev {
			t.Fatalf("attempt %d: delay %v shorter than previous %v", attempt, d, prev)
		}
		prev = d
	}
}
