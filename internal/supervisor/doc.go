// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package supervisor provides process supervision for Beacon using suture v4.

# Overview

Services are organized into two layers for failure isolation:

	RootSupervisor ("beacon")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── ConnectionManagerService (hub connection manager)
	│   ├── websocket.Hub (viewer fan-out)
	│   ├── publisher.Pipeline (auto-publish)
	│   └── RelayService (if RELAY_ENABLED)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashing relay or viewer hub is restarted on its own; the HTTP API keeps
serving health and status while the messaging layer recovers.

Supervisor events (service failures, restarts, backoff) are logged through
sutureslog using the zerolog-backed slog handler from the logging package.

# Usage Example

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}

	tree.AddMessagingService(services.NewConnectionManagerService(manager))
	tree.AddMessagingService(viewerHub)
	tree.AddAPIService(services.NewHTTPServerService(server, ":8080", 10*time.Second))

	errCh := tree.ServeBackground(ctx)

# Shutdown

Cancelling the context stops every service. Services that do not return
within TreeConfig.ShutdownTimeout are listed by UnstoppedServiceReport.

# See Also

  - github.com/thejerf/suture/v4
  - internal/supervisor/services: service wrappers
*/
package supervisor
