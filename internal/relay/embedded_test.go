// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package relay

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/beacon/internal/models"
)

func startEmbedded(t *testing.T) *EmbeddedServer {
	t.Helper()
	srv, err := NewEmbeddedServer("127.0.0.1", -1)
	if err != nil {
		t.Fatalf("NewEmbeddedServer: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func TestEmbeddedServer_Lifecycle(t *testing.T) {
	srv, err := NewEmbeddedServer("127.0.0.1", -1)
	if err != nil {
		t.Fatalf("NewEmbeddedServer: %v", err)
	}
	if !srv.IsRunning() {
		t.Fatal("server not running after start")
	}
	if srv.ClientURL() == "" {
		t.Fatal("empty client URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if srv.IsRunning() {
		t.Error("server still running after Shutdown")
	}
}

func TestRelay_EndToEndOverNATS(t *testing.T) {
	srv := startEmbedded(t)

	nc, err := natsgo.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()

	sub, err := nc.SubscribeSync("beacon.locations.>")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	cfg := Config{URL: srv.ClientURL(), SubjectPrefix: "beacon.locations", MaxReconnects: 1}
	wmPub, err := NewNATSPublisher(cfg, NewWatermillLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("NewNATSPublisher: %v", err)
	}
	p := NewPublisher(wmPub, cfg)
	defer p.Close()

	f := NewForwarder(p, 4)
	runForwarder(t, f)
	f.Observe(models.LocationUpdate{SenderID: "rider@example.com", Lat: 1.5, Lon: -2.5, SequenceID: 9})

	msg, err := sub.NextMsg(5 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg: %v", err)
	}
	if msg.Subject != "beacon.locations.rider_example_com" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if got := msg.Header.Get(MetadataSenderID); got != "rider@example.com" {
		t.Errorf("sender header = %q", got)
	}

	var update models.LocationUpdate
	if err := json.Unmarshal(msg.Data, &update); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if update.Lat != 1.5 || update.Lon != -2.5 || update.SequenceID != 9 {
		t.Errorf("update = %+v", update)
	}
}
