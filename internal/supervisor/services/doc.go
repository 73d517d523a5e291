// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package services provides suture.Service wrappers for Beacon components.

Each wrapper translates a component lifecycle (ListenAndServe, Start and
Shutdown, a closable Serve loop) into suture's context-aware Serve:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Configurable shutdown timeout for draining connections

Connection Manager (ConnectionManagerService):
  - Wraps hub.Manager
  - Returns suture.ErrDoNotRestart once the manager has been closed

Relay (RelayService):
  - Wraps relay.Relay with its Start / Run / Shutdown lifecycle
  - A failed Start is returned so suture retries with backoff

Components that already implement Serve(ctx) error and String() (the
viewer hub, the publish pipeline) are added to the tree directly.
*/
package services
