// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package services

import (
	"context"
	"errors"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/beacon/internal/hub"
)

// ConnectionManager is the lifecycle subset of *hub.Manager.
type ConnectionManager interface {
	Serve(ctx context.Context) error
}

// ConnectionManagerService supervises the hub connection manager.
type ConnectionManagerService struct {
	manager ConnectionManager
	name    string
}

// NewConnectionManagerService wraps manager.
func NewConnectionManagerService(manager ConnectionManager) *ConnectionManagerService {
	return &ConnectionManagerService{
		manager: manager,
		name:    "hub-connection-manager",
	}
}

// Serve implements suture.Service. A closed manager cannot be served again,
// so hub.ErrManagerClosed becomes suture.ErrDoNotRestart.
func (s *ConnectionManagerService) Serve(ctx context.Context) error {
	err := s.manager.Serve(ctx)
	if errors.Is(err, hub.ErrManagerClosed) {
		return suture.ErrDoNotRestart
	}
	return err
}

// String implements fmt.Stringer for suture logging.
func (s *ConnectionManagerService) String() string {
	return s.name
}
