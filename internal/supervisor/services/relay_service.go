// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package services

import (
	"context"
	"fmt"
	"time"
)

// RelayRunner is the lifecycle of *relay.Relay.
type RelayRunner interface {
	Start(ctx context.Context) error
	Run(ctx context.Context) error
	Shutdown(ctx context.Context)
}

// RelayService runs the NATS relay as a supervised service:
//  1. Start connects the publisher (and the embedded server, if configured)
//  2. Run forwards queued updates until the context ends
//  3. Shutdown closes the publisher with a fresh timeout
type RelayService struct {
	relay           RelayRunner
	shutdownTimeout time.Duration
	name            string
}

// NewRelayService wraps relay with a 10 second shutdown timeout.
func NewRelayService(relay RelayRunner) *RelayService {
	return NewRelayServiceWithTimeout(relay, 10*time.Second)
}

// NewRelayServiceWithTimeout wraps relay with a custom shutdown timeout.
func NewRelayServiceWithTimeout(relay RelayRunner, shutdownTimeout time.Duration) *RelayService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &RelayService{
		relay:           relay,
		shutdownTimeout: shutdownTimeout,
		name:            "nats-relay",
	}
}

// Serve implements suture.Service. A Start failure is returned so suture
// restarts the service with backoff.
func (s *RelayService) Serve(ctx context.Context) error {
	if err := s.relay.Start(ctx); err != nil {
		return fmt.Errorf("relay start failed: %w", err)
	}

	err := s.relay.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.relay.Shutdown(shutdownCtx)

	return err
}

// String implements fmt.Stringer for suture logging.
func (s *RelayService) String() string {
	return s.name
}
