// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/beacon/internal/config"
	"github.com/tomtom215/beacon/internal/models"
)

func TestRelay_PublishBeforeStart(t *testing.T) {
	r := New(config.RelayConfig{SubjectPrefix: "fleet"})
	if err := r.Publish(models.LocationUpdate{SenderID: "a"}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Publish() = %v, want ErrNotStarted", err)
	}
}

func TestRelay_ObserveQueuesBeforeStart(t *testing.T) {
	r := New(config.RelayConfig{})
	r.Observe(models.LocationUpdate{SenderID: "a", SequenceID: 1})
	r.Observe(models.LocationUpdate{SenderID: "a", SequenceID: 2})
	if r.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", r.Pending())
	}
}

func TestRelay_StartPublisherError(t *testing.T) {
	r := New(config.RelayConfig{})
	r.newPublisher = func(Config) (message.Publisher, error) {
		return nil, errors.New("bad url")
	}
	if err := r.Start(context.Background()); err == nil {
		t.Fatal("Start() succeeded with failing publisher")
	}
	if err := r.Publish(models.LocationUpdate{SenderID: "a"}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Publish() = %v, want ErrNotStarted", err)
	}
}

func TestRelay_EmbeddedLifecycle(t *testing.T) {
	r := New(config.RelayConfig{
		Enabled:        true,
		EmbeddedServer: true,
		EmbeddedHost:   "127.0.0.1",
		EmbeddedPort:   -1,
		SubjectPrefix:  "fleet",
	})

	// Queued before the relay is started.
	r.Observe(models.LocationUpdate{SenderID: "van-1", Lat: 10, Lon: 20, SequenceID: 1})

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	r.mu.RLock()
	url := r.server.ClientURL()
	r.mu.RUnlock()

	nc, err := natsgo.Connect(url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()
	sub, err := nc.SubscribeSync("fleet.*")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	msg, err := sub.NextMsg(5 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg: %v", err)
	}
	if msg.Subject != "fleet.van-1" {
		t.Errorf("subject = %q", msg.Subject)
	}

	cancel()
	<-done

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	r.Shutdown(shutdownCtx)
	if err := r.Publish(models.LocationUpdate{SenderID: "a"}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Publish after Shutdown = %v, want ErrNotStarted", err)
	}
}
