// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package history

import (
	"sync"

	"github.com/tomtom215/beacon/internal/metrics"
	"github.com/tomtom215/beacon/internal/models"
)

// DefaultCapacity is the number of updates kept when none is configured.
const DefaultCapacity = 50

// Store is the location history buffer.
type Store struct {
	mu       sync.RWMutex
	capacity int
	buf      []models.LocationUpdate // newest first
	latest   map[string]models.LocationUpdate
}

// New creates a store holding at most capacity updates.
// Non-positive capacities fall back to DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		buf:      make([]models.LocationUpdate, 0, capacity),
		latest:   make(map[string]models.LocationUpdate),
	}
}

// Record prepends update, truncates to capacity and updates the
// latest-per-sender index.
func (s *Store) Record(update models.LocationUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted *models.LocationUpdate
	if len(s.buf) == s.capacity {
		oldest := s.buf[len(s.buf)-1]
		evicted = &oldest
	} else {
		s.buf = append(s.buf, models.LocationUpdate{})
	}
	copy(s.buf[1:], s.buf[:len(s.buf)-1])
	s.buf[0] = update
	s.latest[update.SenderID] = update

	if evicted != nil && evicted.SenderID != update.SenderID && !s.holds(evicted.SenderID) {
		delete(s.latest, evicted.SenderID)
	}

	metrics.UpdateHistory(len(s.buf), len(s.latest))
}

// holds reports whether any buffered update belongs to sender.
// Must be called with mu held.
func (s *Store) holds(sender string) bool {
	for i := range s.buf {
		if s.buf[i].SenderID == sender {
			return true
		}
	}
	return false
}

// Clear empties both the buffer and the latest index.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = s.buf[:0]
	clear(s.latest)
	metrics.UpdateHistory(0, 0)
}

// All returns a copy of the buffer, newest first.
func (s *Store) All() []models.LocationUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.LocationUpdate, len(s.buf))
	copy(out, s.buf)
	return out
}

// LatestFor returns the most recently recorded update for sender.
func (s *Store) LatestFor(sender string) (models.LocationUpdate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.latest[sender]
	return u, ok
}

// Latest returns one update per sender, newest first.
func (s *Store) Latest() []models.LocationUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.LocationUpdate, 0, len(s.latest))
	seen := make(map[string]struct{}, len(s.latest))
	for i := range s.buf {
		sender := s.buf[i].SenderID
		if _, dup := seen[sender]; dup {
			continue
		}
		seen[sender] = struct{}{}
		if u, ok := s.latest[sender]; ok {
			out = append(out, u)
		}
	}
	return out
}

// Len returns the number of buffered updates.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buf)
}

// Capacity returns the configured bound.
func (s *Store) Capacity() int {
	return s.capacity
}
