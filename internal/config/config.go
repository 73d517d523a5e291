// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Hub      HubConfig      `koanf:"hub"`
	History  HistoryConfig  `koanf:"history"`
	Publish  PublishConfig  `koanf:"publish"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Relay    RelayConfig    `koanf:"relay"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// HubConfig configures the connection to the remote real-time hub.
type HubConfig struct {
	URL               string        `koanf:"url"`
	RetryDelay        time.Duration `koanf:"retry_delay"`        // Delay before retrying after a failed or dropped connection
	KeepAliveInterval time.Duration `koanf:"keep_alive_interval"` // Client ping interval
	ServerTimeout     time.Duration `koanf:"server_timeout"`      // Connection is considered lost after this much silence
	HandshakeTimeout  time.Duration `koanf:"handshake_timeout"`   // Negotiate + dial + handshake budget

	// MaxReconnectAttempts bounds the transport's automatic reconnect
	// attempts before it gives up (0 = unlimited).
	MaxReconnectAttempts int `koanf:"max_reconnect_attempts"`

	// Outbound invocation rate limit (0 = disabled).
	SendRateLimit float64 `koanf:"send_rate_limit"`
	SendBurst     int     `koanf:"send_burst"`

	// Circuit breaker around SendLatLon invocations.
	BreakerEnabled          bool          `koanf:"breaker_enabled"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
}

// HistoryConfig configures the in-memory history of received updates.
type HistoryConfig struct {
	Capacity int `koanf:"capacity"`
}

// PublishConfig configures the publish session and auto-publish task.
type PublishConfig struct {
	Mode      string        `koanf:"mode"` // live or mock
	SenderID  string        `koanf:"sender_id"`
	Interval  time.Duration `koanf:"interval"`
	AutoStart bool          `koanf:"auto_start"` // Start auto-publishing at boot (requires sender_id)

	DefaultLat float64 `koanf:"default_lat"`
	DefaultLon float64 `koanf:"default_lon"`

	// JitterDegrees is the maximum per-axis perturbation applied in mock mode.
	JitterDegrees float64 `koanf:"jitter_degrees"`

	// TestSpreadDegrees bounds test locations around the default position.
	TestSpreadDegrees float64 `koanf:"test_spread_degrees"`
	TestSenderID      string  `koanf:"test_sender_id"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds HTTP hardening settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// RelayConfig configures the optional NATS mirror of received updates.
type RelayConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	EmbeddedHost   string `koanf:"embedded_host"`
	EmbeddedPort   int    `koanf:"embedded_port"`
	SubjectPrefix  string `koanf:"subject_prefix"`

	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
