// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package main

import (
	"testing"

	"github.com/tomtom215/beacon/internal/config"
	"github.com/tomtom215/beacon/internal/history"
	"github.com/tomtom215/beacon/internal/models"
	ws "github.com/tomtom215/beacon/internal/websocket"
)

// fakeSource captures the subscribed observers.
type fakeSource struct {
	onLocation   func(models.LocationUpdate)
	onStatus     func(models.ConnectionStatus)
	unsubscribed int
}

func (f *fakeSource) SubscribeLocations(fn func(models.LocationUpdate)) func() {
	f.onLocation = fn
	return func() { f.unsubscribed++ }
}

func (f *fakeSource) SubscribeStatus(fn func(models.ConnectionStatus)) func() {
	f.onStatus = fn
	return func() { f.unsubscribed++ }
}

// fakeViewers records broadcasts along with what history held at the time.
type fakeViewers struct {
	store       *history.Store
	locations   []models.LocationUpdate
	historyLens []int
	statuses    []models.ConnectionStatus
}

func (f *fakeViewers) BroadcastLocation(update models.LocationUpdate) {
	f.locations = append(f.locations, update)
	f.historyLens = append(f.historyLens, f.store.Len())
}

func (f *fakeViewers) BroadcastStatus(status models.ConnectionStatus) {
	f.statuses = append(f.statuses, status)
}

func TestWireObservers(t *testing.T) {
	src := &fakeSource{}
	store := history.New(5)
	viewers := &fakeViewers{store: store}
	var mirrored []models.LocationUpdate

	unsubscribe := wireObservers(src, store.Record, viewers, func(u models.LocationUpdate) {
		mirrored = append(mirrored, u)
	})

	src.onLocation(models.LocationUpdate{SenderID: "a", SequenceID: 1})
	src.onLocation(models.LocationUpdate{SenderID: "b", SequenceID: 2})
	src.onStatus(models.ConnectionStatus{State: models.StateReconnecting})

	if store.Len() != 2 {
		t.Errorf("history len = %d, want 2", store.Len())
	}
	if len(viewers.locations) != 2 || viewers.historyLens[0] != 1 || viewers.historyLens[1] != 2 {
		t.Errorf("viewers saw %v with history lens %v; updates must be recorded first", viewers.locations, viewers.historyLens)
	}
	if len(mirrored) != 2 || mirrored[1].SequenceID != 2 {
		t.Errorf("mirrored = %+v", mirrored)
	}
	if len(viewers.statuses) != 1 || viewers.statuses[0].State != models.StateReconnecting {
		t.Errorf("statuses = %+v", viewers.statuses)
	}

	unsubscribe()
	if src.unsubscribed != 2 {
		t.Errorf("unsubscribed = %d, want 2", src.unsubscribed)
	}
}

func TestWireObservers_NoRelay(t *testing.T) {
	src := &fakeSource{}
	store := history.New(5)
	viewers := &fakeViewers{store: store}

	wireObservers(src, store.Record, viewers, nil)
	src.onLocation(models.LocationUpdate{SenderID: "a", SequenceID: 1})

	if store.Len() != 1 || len(viewers.locations) != 1 {
		t.Errorf("history %d, viewers %d", store.Len(), len(viewers.locations))
	}
}

func TestSnapshotSources_Build(t *testing.T) {
	store := history.New(5)
	src := snapshotSources{
		status:  func() models.ConnectionStatus { return models.ConnectionStatus{State: models.StateConnected} },
		latest:  store.Latest,
		session: func() models.PublishSession { return models.PublishSession{SenderID: "van-1"} },
	}

	msg := src.build()
	if msg.Type != ws.MessageTypeSnapshot {
		t.Fatalf("type = %q", msg.Type)
	}
	data, ok := msg.Data.(ws.SnapshotData)
	if !ok {
		t.Fatalf("data = %T", msg.Data)
	}
	if data.Latest == nil {
		t.Error("empty history must be an empty list, not null")
	}
	if data.Session == nil || data.Session.SenderID != "van-1" {
		t.Errorf("session = %+v", data.Session)
	}
	if data.Connection.State != models.StateConnected {
		t.Errorf("connection = %+v", data.Connection)
	}

	store.Record(models.LocationUpdate{SenderID: "a", SequenceID: 1})
	if data := src.build().Data.(ws.SnapshotData); len(data.Latest) != 1 {
		t.Errorf("latest = %+v", data.Latest)
	}
}

func TestInitRelay_Disabled(t *testing.T) {
	cfg := config.Default()
	cfg.Relay.Enabled = false
	if r := initRelay(cfg); r != nil {
		t.Error("relay created while disabled")
	}
	// No-op for a nil relay.
	addRelayToSupervisor(nil, nil, cfg)
}

func TestInitRelay_Enabled(t *testing.T) {
	cfg := config.Default()
	cfg.Relay.Enabled = true
	r := initRelay(cfg)
	if r == nil {
		t.Fatal("relay not created")
	}
	if r.Pending() != 0 {
		t.Errorf("pending = %d", r.Pending())
	}
}
