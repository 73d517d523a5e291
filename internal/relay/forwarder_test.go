// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/beacon/internal/metrics"
	"github.com/tomtom215/beacon/internal/models"
)

type recordingPublisher struct {
	mu      sync.Mutex
	updates []models.LocationUpdate
	failOn  uint64
}

func (p *recordingPublisher) Publish(update models.LocationUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, update)
	if update.SequenceID == p.failOn {
		return errors.New("relay down")
	}
	return nil
}

func (p *recordingPublisher) sequences() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	seqs := make([]uint64, len(p.updates))
	for i, u := range p.updates {
		seqs[i] = u.SequenceID
	}
	return seqs
}

func runForwarder(t *testing.T, f *Forwarder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	})
}

func waitForSequences(t *testing.T, p *recordingPublisher, want []uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := p.sequences(); len(got) == len(want) {
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("sequences = %v, want %v", got, want)
				}
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("sequences = %v, want %v", p.sequences(), want)
}

func TestForwarder_PublishesInOrder(t *testing.T) {
	pub := &recordingPublisher{}
	f := NewForwarder(pub, 8)
	runForwarder(t, f)

	for i := uint64(1); i <= 5; i++ {
		f.Observe(models.LocationUpdate{SenderID: "a", SequenceID: i})
	}
	waitForSequences(t, pub, []uint64{1, 2, 3, 4, 5})
}

func TestForwarder_ContinuesAfterPublishError(t *testing.T) {
	pub := &recordingPublisher{failOn: 2}
	f := NewForwarder(pub, 8)
	runForwarder(t, f)

	for i := uint64(1); i <= 3; i++ {
		f.Observe(models.LocationUpdate{SenderID: "a", SequenceID: i})
	}
	waitForSequences(t, pub, []uint64{1, 2, 3})
}

func TestForwarder_DropsWhenFull(t *testing.T) {
	f := NewForwarder(&recordingPublisher{}, 1) // not running: nothing drains
	before := testutil.ToFloat64(metrics.RelayPublishes.WithLabelValues("dropped"))

	done := make(chan struct{})
	go func() {
		f.Observe(models.LocationUpdate{SenderID: "a", SequenceID: 1})
		f.Observe(models.LocationUpdate{SenderID: "a", SequenceID: 2})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Observe blocked on a full queue")
	}

	if f.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", f.Pending())
	}
	if got := testutil.ToFloat64(metrics.RelayPublishes.WithLabelValues("dropped")); got != before+1 {
		t.Errorf("dropped = %v, want %v", got, before+1)
	}
}

func TestForwarder_Defaults(t *testing.T) {
	f := NewForwarder(&recordingPublisher{}, 0)
	if cap(f.queue) != DefaultQueueSize {
		t.Errorf("queue size = %d, want %d", cap(f.queue), DefaultQueueSize)
	}
	if f.String() != "relay-forwarder" {
		t.Errorf("String() = %q", f.String())
	}
}
