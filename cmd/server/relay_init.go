// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package main

import (
	"github.com/tomtom215/beacon/internal/config"
	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/relay"
	"github.com/tomtom215/beacon/internal/supervisor"
	"github.com/tomtom215/beacon/internal/supervisor/services"
)

// initRelay creates the NATS relay when RELAY_ENABLED=true. It returns nil
// when the relay is disabled; the connection is made later by the
// supervised service, so a broker that is down at boot is retried.
func initRelay(cfg *config.Config) *relay.Relay {
	if !cfg.Relay.Enabled {
		logging.Info().Msg("NATS relay disabled (RELAY_ENABLED=false)")
		return nil
	}

	event := logging.Info().Str("subject_prefix", cfg.Relay.SubjectPrefix)
	if cfg.Relay.EmbeddedServer {
		event = event.Str("embedded_host", cfg.Relay.EmbeddedHost).Int("embedded_port", cfg.Relay.EmbeddedPort)
	} else {
		event = event.Str("url", cfg.Relay.URL)
	}
	event.Msg("NATS relay enabled")

	return relay.New(cfg.Relay)
}

// addRelayToSupervisor adds the relay to the messaging layer. No-op for a
// nil relay.
func addRelayToSupervisor(tree *supervisor.SupervisorTree, r *relay.Relay, cfg *config.Config) {
	if r == nil {
		return
	}
	tree.AddMessagingService(services.NewRelayServiceWithTimeout(r, cfg.Server.ShutdownTimeout))
	logging.Info().Msg("NATS relay added to supervisor tree (messaging layer)")
}
