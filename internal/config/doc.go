// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package config loads and validates Beacon's configuration.

Configuration is layered with Koanf v2; later layers win:

 1. Defaults: built-in values from defaultConfig()
 2. Config file: optional YAML, found via CONFIG_PATH or DefaultConfigPaths
 3. Environment variables: mapped names such as HUB_URL or PUBLISH_MODE

Sections:

  - hub: remote hub endpoint, retry delay, keep-alive, reconnect budget,
    outbound rate limit and circuit breaker
  - history: received-update buffer capacity
  - publish: session defaults (mode, sender, auto-publish interval, default
    position, jitter)
  - server: HTTP listener
  - security: CORS origins and per-IP rate limiting
  - relay: optional NATS mirror of received updates
  - logging: level, format, caller

Example config.yaml:

	hub:
	  url: https://hub.example.com/Hub
	  retry_delay: 5s
	history:
	  capacity: 50
	publish:
	  mode: mock
	  interval: 5s

Environment Variables:

	HUB_URL                    hub.url
	HUB_RETRY_DELAY            hub.retry_delay
	HUB_MAX_RECONNECT_ATTEMPTS hub.max_reconnect_attempts
	HISTORY_CAPACITY           history.capacity
	PUBLISH_MODE               publish.mode
	PUBLISH_SENDER_ID          publish.sender_id
	PUBLISH_INTERVAL           publish.interval
	HTTP_PORT                  server.port
	CORS_ORIGINS               security.cors_origins (comma-separated)
	RELAY_ENABLED              relay.enabled
	NATS_URL                   relay.url
	LOG_LEVEL                  logging.level

The full mapping lives in envMappings.
*/
package config
