// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/beacon/internal/config"
	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/models"
)

// ErrNotStarted is returned by Publish before Start has succeeded.
var ErrNotStarted = errors.New("relay not started")

// Relay owns the relay components: the optional embedded server, the
// publisher and the forwarder queue. Observe may be subscribed before
// Start; updates queue until the forwarder runs.
type Relay struct {
	cfg       Config
	embedded  bool
	host      string
	port      int
	forwarder *Forwarder

	// newPublisher builds the Watermill publisher; replaced in tests.
	newPublisher func(Config) (message.Publisher, error)

	mu        sync.RWMutex
	publisher *Publisher
	server    *EmbeddedServer
}

// New creates a relay from the relay configuration section.
func New(cfg config.RelayConfig) *Relay {
	r := &Relay{
		cfg:      ConfigFromRelay(cfg),
		embedded: cfg.EmbeddedServer,
		host:     cfg.EmbeddedHost,
		port:     cfg.EmbeddedPort,
		newPublisher: func(c Config) (message.Publisher, error) {
			return NewNATSPublisher(c, nil)
		},
	}
	r.forwarder = NewForwarder(r, DefaultQueueSize)
	return r
}

// Observe queues an update for relaying. It is a location observer.
func (r *Relay) Observe(update models.LocationUpdate) {
	r.forwarder.Observe(update)
}

// Publish sends update through the current publisher.
func (r *Relay) Publish(update models.LocationUpdate) error {
	r.mu.RLock()
	p := r.publisher
	r.mu.RUnlock()
	if p == nil {
		return ErrNotStarted
	}
	return p.Publish(update)
}

// Start launches the embedded server when configured and connects the
// publisher.
func (r *Relay) Start(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.publisher != nil {
		return nil
	}

	cfg := r.cfg
	if r.embedded {
		srv, err := NewEmbeddedServer(r.host, r.port)
		if err != nil {
			return err
		}
		r.server = srv
		cfg.URL = srv.ClientURL()
		logging.Info().Str("url", cfg.URL).Msg("embedded NATS server started")
	}

	pub, err := r.newPublisher(cfg)
	if err != nil {
		r.shutdownServerLocked(context.Background())
		return fmt.Errorf("connect relay publisher: %w", err)
	}
	r.publisher = NewPublisher(pub, cfg)

	logging.Info().Str("url", cfg.URL).Str("subject_prefix", r.publisher.prefix).Msg("relay started")
	return nil
}

// Run publishes queued updates until ctx ends.
func (r *Relay) Run(ctx context.Context) error {
	return r.forwarder.Serve(ctx)
}

// Shutdown closes the publisher and stops the embedded server. Queued
// updates that were not yet published are discarded.
func (r *Relay) Shutdown(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.publisher != nil {
		if err := r.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("relay publisher close failed")
		}
		r.publisher = nil
	}
	r.shutdownServerLocked(ctx)
}

func (r *Relay) shutdownServerLocked(ctx context.Context) {
	if r.server == nil {
		return
	}
	if err := r.server.Shutdown(ctx); err != nil {
		logging.Warn().Err(err).Msg("embedded NATS server shutdown incomplete")
	}
	r.server = nil
}

// Pending returns the number of queued updates.
func (r *Relay) Pending() int {
	return r.forwarder.Pending()
}
