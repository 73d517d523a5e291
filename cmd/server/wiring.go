// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package main

import (
	"github.com/tomtom215/beacon/internal/models"
	ws "github.com/tomtom215/beacon/internal/websocket"
)

// locationSource is the observer side of *hub.Manager.
type locationSource interface {
	SubscribeLocations(fn func(models.LocationUpdate)) (unsubscribe func())
	SubscribeStatus(fn func(models.ConnectionStatus)) (unsubscribe func())
}

// viewerHub is the broadcast side of *websocket.Hub.
type viewerHub interface {
	BroadcastLocation(update models.LocationUpdate)
	BroadcastStatus(status models.ConnectionStatus)
}

// wireObservers subscribes the history store, the viewer hub and the
// optional relay to the connection manager. Every received update is
// recorded before viewers see it. The returned function unsubscribes all.
func wireObservers(src locationSource, record func(models.LocationUpdate), viewers viewerHub, mirror func(models.LocationUpdate)) func() {
	unsubs := []func(){
		src.SubscribeLocations(func(update models.LocationUpdate) {
			record(update)
			viewers.BroadcastLocation(update)
			if mirror != nil {
				mirror(update)
			}
		}),
		src.SubscribeStatus(viewers.BroadcastStatus),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// snapshotSources feed the message a viewer receives on connect.
type snapshotSources struct {
	status  func() models.ConnectionStatus
	latest  func() []models.LocationUpdate
	session func() models.PublishSession
}

func (s snapshotSources) build() ws.Message {
	data := ws.SnapshotData{
		Connection: s.status(),
		Latest:     s.latest(),
	}
	if data.Latest == nil {
		data.Latest = []models.LocationUpdate{}
	}
	if s.session != nil {
		session := s.session()
		data.Session = &session
	}
	return ws.Message{Type: ws.MessageTypeSnapshot, Data: data}
}
