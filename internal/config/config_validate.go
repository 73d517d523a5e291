// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/beacon/internal/models"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateHub(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateRelay(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateHub() error {
	if c.Hub.URL == "" {
		return fmt.Errorf("HUB_URL is required")
	}
	if err := validateHubURL(c.Hub.URL); err != nil {
		return fmt.Errorf("HUB_URL is invalid: %w", err)
	}
	if c.Hub.RetryDelay <= 0 {
		return fmt.Errorf("HUB_RETRY_DELAY must be positive, got %v", c.Hub.RetryDelay)
	}
	if c.Hub.KeepAliveInterval <= 0 {
		return fmt.Errorf("HUB_KEEP_ALIVE_INTERVAL must be positive, got %v", c.Hub.KeepAliveInterval)
	}
	if c.Hub.ServerTimeout <= c.Hub.KeepAliveInterval {
		return fmt.Errorf("HUB_SERVER_TIMEOUT (%v) must be greater than HUB_KEEP_ALIVE_INTERVAL (%v)",
			c.Hub.ServerTimeout, c.Hub.KeepAliveInterval)
	}
	if c.Hub.HandshakeTimeout <= 0 {
		return fmt.Errorf("HUB_HANDSHAKE_TIMEOUT must be positive, got %v", c.Hub.HandshakeTimeout)
	}
	if c.Hub.MaxReconnectAttempts < 0 {
		return fmt.Errorf("HUB_MAX_RECONNECT_ATTEMPTS must be >= 0 (0 = unlimited), got %d", c.Hub.MaxReconnectAttempts)
	}
	if c.Hub.SendRateLimit < 0 {
		return fmt.Errorf("HUB_SEND_RATE_LIMIT must be >= 0 (0 = disabled), got %v", c.Hub.SendRateLimit)
	}
	if c.Hub.SendRateLimit > 0 && c.Hub.SendBurst < 1 {
		return fmt.Errorf("HUB_SEND_BURST must be at least 1 when rate limiting is enabled")
	}
	if c.Hub.BreakerEnabled {
		if c.Hub.BreakerFailureThreshold == 0 {
			return fmt.Errorf("HUB_BREAKER_FAILURE_THRESHOLD must be at least 1")
		}
		if c.Hub.BreakerTimeout <= 0 {
			return fmt.Errorf("HUB_BREAKER_TIMEOUT must be positive, got %v", c.Hub.BreakerTimeout)
		}
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Capacity < 1 {
		return fmt.Errorf("HISTORY_CAPACITY must be at least 1, got %d", c.History.Capacity)
	}
	return nil
}

func (c *Config) validatePublish() error {
	if _, err := models.ParsePublishMode(c.Publish.Mode); err != nil {
		return fmt.Errorf("PUBLISH_MODE is invalid: %w", err)
	}
	if c.Publish.Interval < 100*time.Millisecond {
		return fmt.Errorf("PUBLISH_INTERVAL must be at least 100ms, got %v", c.Publish.Interval)
	}
	if c.Publish.AutoStart && strings.TrimSpace(c.Publish.SenderID) == "" {
		return fmt.Errorf("PUBLISH_SENDER_ID is required when PUBLISH_AUTO_START=true")
	}
	if c.Publish.DefaultLat < -90 || c.Publish.DefaultLat > 90 {
		return fmt.Errorf("PUBLISH_DEFAULT_LAT must be between -90 and 90, got %v", c.Publish.DefaultLat)
	}
	if c.Publish.DefaultLon < -180 || c.Publish.DefaultLon > 180 {
		return fmt.Errorf("PUBLISH_DEFAULT_LON must be between -180 and 180, got %v", c.Publish.DefaultLon)
	}
	if c.Publish.JitterDegrees < 0 || c.Publish.TestSpreadDegrees < 0 {
		return fmt.Errorf("PUBLISH_JITTER_DEGREES and PUBLISH_TEST_SPREAD_DEGREES must be >= 0")
	}
	if strings.TrimSpace(c.Publish.TestSenderID) == "" {
		return fmt.Errorf("PUBLISH_TEST_SENDER_ID must not be empty")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT and HTTP_WRITE_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive, got %v", c.Server.ShutdownTimeout)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateRelay() error {
	if !c.Relay.Enabled {
		return nil
	}
	if err := validateNATSURL(c.Relay.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if c.Relay.EmbeddedServer && (c.Relay.EmbeddedPort < 1 || c.Relay.EmbeddedPort > 65535) {
		return fmt.Errorf("NATS_EMBEDDED_PORT must be between 1 and 65535, got %d", c.Relay.EmbeddedPort)
	}
	prefix := strings.TrimSpace(c.Relay.SubjectPrefix)
	if prefix == "" || strings.ContainsAny(prefix, " *>") || strings.HasSuffix(prefix, ".") {
		return fmt.Errorf("RELAY_SUBJECT_PREFIX %q is not a valid subject prefix", c.Relay.SubjectPrefix)
	}
	if c.Relay.BreakerFailureThreshold == 0 {
		return fmt.Errorf("RELAY_BREAKER_FAILURE_THRESHOLD must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic, disabled; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// PublishMode returns the validated publish mode.
func (c *Config) PublishMode() models.PublishMode {
	mode, err := models.ParsePublishMode(c.Publish.Mode)
	if err != nil {
		return models.ModeLive
	}
	return mode
}
