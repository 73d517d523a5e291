// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset or missing.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/beacon/config.yaml",
	"/etc/beacon/config.yml",
}

const ConfigPathEnvVar = "CONFIG_PATH"

// Defaults for the public test hub.
const (
	DefaultHubURL     = "https://tech-test.raintor.com/Hub"
	DefaultLatitude   = 25.73736464
	DefaultLongitude  = 90.3644747
	DefaultTestSender = "test@example.com"
)

func defaultConfig() *Config {
	return &Config{
		Hub: HubConfig{
			URL:                     DefaultHubURL,
			RetryDelay:              5 * time.Second,
			KeepAliveInterval:       15 * time.Second,
			ServerTimeout:           30 * time.Second,
			HandshakeTimeout:        15 * time.Second,
			MaxReconnectAttempts:    0,
			SendRateLimit:           0,
			SendBurst:               5,
			BreakerEnabled:          true,
			BreakerFailureThreshold: 5,
			BreakerTimeout:          30 * time.Second,
		},
		History: HistoryConfig{
			Capacity: 50,
		},
		Publish: PublishConfig{
			Mode:              "live",
			SenderID:          "",
			Interval:          5 * time.Second,
			AutoStart:         false,
			DefaultLat:        DefaultLatitude,
			DefaultLon:        DefaultLongitude,
			JitterDegrees:     0.0005,
			TestSpreadDegrees: 0.005,
			TestSenderID:      DefaultTestSender,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Relay: RelayConfig{
			Enabled:                 false,
			URL:                     "nats://127.0.0.1:4222",
			EmbeddedServer:          false,
			EmbeddedHost:            "127.0.0.1",
			EmbeddedPort:            4222,
			SubjectPrefix:           "beacon.locations",
			BreakerFailureThreshold: 5,
			BreakerTimeout:          30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Default returns the built-in configuration without reading any source.
func Default() *Config {
	return defaultConfig()
}

// LoadWithKoanf layers built-in defaults, the optional YAML file found by
// ConfigFilePath and mapped environment variables, later sources winning,
// then validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	layers := []struct {
		name string
		load func() error
	}{
		{"defaults", func() error { return k.Load(structs.Provider(defaultConfig(), "koanf"), nil) }},
		{"config file", func() error {
			path := ConfigFilePath()
			if path == "" {
				return nil
			}
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		}},
		{"environment", func() error { return k.Load(env.Provider("", ".", envTransformFunc), nil) }},
		{"list values", func() error { return splitListValues(k) }},
	}
	for _, layer := range layers {
		if err := layer.load(); err != nil {
			return nil, fmt.Errorf("load %s: %w", layer.name, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ConfigFilePath returns the file LoadWithKoanf reads: CONFIG_PATH if it
// exists, else the first existing DefaultConfigPaths entry, else "".
func ConfigFilePath() string {
	candidates := DefaultConfigPaths
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		candidates = append([]string{p}, candidates...)
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// listPaths hold string lists that arrive from the environment as
// comma-separated values.
var listPaths = []string{"security.cors_origins"}

func splitListValues(k *koanf.Koanf) error {
	for _, path := range listPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var items []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			continue
		}
		if err := k.Set(path, items); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Hub
	"hub_url":                       "hub.url",
	"hub_retry_delay":               "hub.retry_delay",
	"hub_keep_alive_interval":       "hub.keep_alive_interval",
	"hub_server_timeout":            "hub.server_timeout",
	"hub_handshake_timeout":         "hub.handshake_timeout",
	"hub_max_reconnect_attempts":    "hub.max_reconnect_attempts",
	"hub_send_rate_limit":           "hub.send_rate_limit",
	"hub_send_burst":                "hub.send_burst",
	"hub_breaker_enabled":           "hub.breaker_enabled",
	"hub_breaker_failure_threshold": "hub.breaker_failure_threshold",
	"hub_breaker_timeout":           "hub.breaker_timeout",

	// History
	"history_capacity": "history.capacity",

	// Publish
	"publish_mode":                "publish.mode",
	"publish_sender_id":           "publish.sender_id",
	"publish_interval":            "publish.interval",
	"publish_auto_start":          "publish.auto_start",
	"publish_default_lat":         "publish.default_lat",
	"publish_default_lon":         "publish.default_lon",
	"publish_jitter_degrees":      "publish.jitter_degrees",
	"publish_test_spread_degrees": "publish.test_spread_degrees",
	"publish_test_sender_id":      "publish.test_sender_id",

	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Relay
	"relay_enabled":                   "relay.enabled",
	"nats_url":                        "relay.url",
	"nats_embedded":                   "relay.embedded_server",
	"nats_embedded_host":              "relay.embedded_host",
	"nats_embedded_port":              "relay.embedded_port",
	"relay_subject_prefix":            "relay.subject_prefix",
	"relay_breaker_failure_threshold": "relay.breaker_failure_threshold",
	"relay_breaker_timeout":           "relay.breaker_timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to a koanf path.
// Unmapped variables return "" and are skipped, so unrelated environment
// does not leak into the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// WatchConfigFile calls onChange after each write to path. Watch errors
// are dropped; the previous configuration stays in effect.
func WatchConfigFile(path string, onChange func()) error {
	return file.Provider(path).Watch(func(_ any, err error) {
		if err == nil {
			onChange()
		}
	})
}
