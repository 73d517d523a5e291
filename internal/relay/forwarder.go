// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package relay

import (
	"context"

	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/metrics"
	"github.com/tomtom215/beacon/internal/models"
)

// DefaultQueueSize is the forwarder buffer used when none is given.
const DefaultQueueSize = 1024

// UpdatePublisher publishes one location update.
type UpdatePublisher interface {
	Publish(update models.LocationUpdate) error
}

// Forwarder decouples the receive path from NATS publishing.
type Forwarder struct {
	publisher UpdatePublisher
	queue     chan models.LocationUpdate
}

// NewForwarder creates a forwarder feeding publisher. Run it with Serve.
func NewForwarder(publisher UpdatePublisher, queueSize int) *Forwarder {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Forwarder{
		publisher: publisher,
		queue:     make(chan models.LocationUpdate, queueSize),
	}
}

// Observe queues update for publishing. It never blocks; when the queue is
// full the update is dropped.
func (f *Forwarder) Observe(update models.LocationUpdate) {
	select {
	case f.queue <- update:
	default:
		metrics.RecordRelayDropped()
		logging.Warn().Str("sender_id", update.SenderID).Uint64("sequence_id", update.SequenceID).
			Msg("relay queue full, dropping update")
	}
}

// Serve publishes queued updates until ctx is cancelled. Publish failures
// are logged and do not stop the loop. It implements suture.Service.
func (f *Forwarder) Serve(ctx context.Context) error {
	logger := logging.WithComponent("relay-forwarder")
	logger.Info().Int("queue_size", cap(f.queue)).Msg("relay forwarder started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Int("pending", len(f.queue)).Msg("relay forwarder stopped")
			return ctx.Err()
		case update := <-f.queue:
			if err := f.publisher.Publish(update); err != nil {
				logger.Warn().Err(err).Str("sender_id", update.SenderID).
					Uint64("sequence_id", update.SequenceID).Msg("relay publish failed")
			}
		}
	}
}

// Pending returns the number of queued updates.
func (f *Forwarder) Pending() int {
	return len(f.queue)
}

// String implements fmt.Stringer for suture logging.
func (f *Forwarder) String() string {
	return "relay-forwarder"
}
