// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/beacon/internal/relay"
)

// mockRelay implements RelayRunner.
type mockRelay struct {
	started  atomic.Bool
	running  atomic.Bool
	shutdown atomic.Int32
	startErr error
}

func (m *mockRelay) Start(context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started.Store(true)
	return nil
}

func (m *mockRelay) Run(ctx context.Context) error {
	m.running.Store(true)
	<-ctx.Done()
	m.running.Store(false)
	return ctx.Err()
}

func (m *mockRelay) Shutdown(context.Context) {
	m.shutdown.Add(1)
}

func TestRelayService(t *testing.T) {
	t.Run("implements suture.Service", func(t *testing.T) {
		var _ suture.Service = (*RelayService)(nil)
		var _ RelayRunner = (*relay.Relay)(nil)
	})

	t.Run("runs until cancelled then shuts down", func(t *testing.T) {
		mock := &mockRelay{}
		svc := NewRelayService(mock)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		deadline := time.Now().Add(time.Second)
		for !mock.running.Load() && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		if !mock.started.Load() || !mock.running.Load() {
			t.Fatal("relay was not started")
		}

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(time.Second):
			t.Fatal("service did not stop in time")
		}
		if mock.shutdown.Load() != 1 {
			t.Errorf("Shutdown called %d times, want 1", mock.shutdown.Load())
		}
	})

	t.Run("propagates start error for restart", func(t *testing.T) {
		mock := &mockRelay{startErr: errors.New("nats: no servers available")}
		svc := NewRelayService(mock)

		err := svc.Serve(context.Background())
		if !errors.Is(err, mock.startErr) {
			t.Errorf("Serve() = %v, want wrapped start error", err)
		}
		if mock.shutdown.Load() != 0 {
			t.Error("Shutdown called after failed Start")
		}
	})

	t.Run("timeout defaults", func(t *testing.T) {
		if svc := NewRelayServiceWithTimeout(&mockRelay{}, 0); svc.shutdownTimeout != 10*time.Second {
			t.Errorf("shutdownTimeout = %v", svc.shutdownTimeout)
		}
		if svc := NewRelayService(&mockRelay{}); svc.String() != "nats-relay" {
			t.Errorf("String() = %q", svc.String())
		}
	})
}
