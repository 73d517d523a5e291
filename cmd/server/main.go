// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/beacon/internal/api"
	"github.com/tomtom215/beacon/internal/config"
	"github.com/tomtom215/beacon/internal/history"
	"github.com/tomtom215/beacon/internal/hub"
	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/models"
	"github.com/tomtom215/beacon/internal/publisher"
	"github.com/tomtom215/beacon/internal/supervisor"
	"github.com/tomtom215/beacon/internal/supervisor/services"
	ws "github.com/tomtom215/beacon/internal/websocket"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Default logger: config not yet available.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("hub_url", cfg.Hub.URL).
		Str("publish_mode", string(cfg.PublishMode())).
		Int("history_capacity", cfg.History.Capacity).
		Bool("relay_enabled", cfg.Relay.Enabled).
		Msg("Starting Beacon with supervisor tree")

	watchLogLevel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	store := history.New(cfg.History.Capacity)

	transport := hub.NewSignalRTransport(hub.SignalRConfigFromHub(cfg.Hub))
	manager := hub.NewManager(transport, hub.ConfigFromHub(cfg.Hub))

	pipeline := publisher.New(manager, publisher.ConfigFromPublish(cfg))

	wsHub := ws.NewHub()
	wsHub.SetSnapshot(snapshotSources{
		status:  manager.Status,
		latest:  store.Latest,
		session: pipeline.Session,
	}.build)

	relayer := initRelay(cfg)
	var mirror func(models.LocationUpdate)
	if relayer != nil {
		mirror = relayer.Observe
	}
	unsubscribe := wireObservers(manager, store.Record, wsHub, mirror)
	defer unsubscribe()

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	for _, origin := range cfg.Security.CORSOrigins {
		if origin == "*" {
			logging.Warn().Msg("CORS and WebSocket origins allow any website (CORS_ORIGINS=*)")
			break
		}
	}

	handler := api.NewHandler(manager, store, pipeline, wsHub, cfg.Security.CORSOrigins)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromSecurity(cfg.Security))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	// Messaging layer: the hub connection and everything fed by it.
	tree.AddMessagingService(services.NewConnectionManagerService(manager))
	tree.AddMessagingService(wsHub)
	tree.AddMessagingService(pipeline)
	addRelayToSupervisor(tree, relayer, cfg)
	logging.Info().Msg("Hub connection, viewer hub and publish pipeline added to supervisor tree")

	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if err := manager.Close(); err != nil {
		logging.Warn().Err(err).Msg("Error closing hub connection manager")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Beacon stopped")
}

// watchLogLevel re-applies the log level when the config file changes.
// Other settings need a restart.
func watchLogLevel() {
	path := config.ConfigFilePath()
	if path == "" {
		return
	}
	err := config.WatchConfigFile(path, func() {
		reloaded, err := config.LoadWithKoanf()
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Ignoring invalid config file change")
			return
		}
		logging.SetLevelString(reloaded.Logging.Level)
		logging.Info().Str("level", reloaded.Logging.Level).Msg("Log level reloaded")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
	}
}
