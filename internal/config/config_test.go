// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/beacon/internal/models"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty hub url", func(c *Config) { c.Hub.URL = "" }, "HUB_URL is required"},
		{"bad hub scheme", func(c *Config) { c.Hub.URL = "ftp://hub.example.com" }, "HUB_URL is invalid"},
		{"hub url with query", func(c *Config) { c.Hub.URL = "https://hub.example.com/Hub?x=1" }, "HUB_URL is invalid"},
		{"hub url with path ok", func(c *Config) { c.Hub.URL = "http://localhost:5000/Hub" }, ""},
		{"zero retry delay", func(c *Config) { c.Hub.RetryDelay = 0 }, "HUB_RETRY_DELAY"},
		{"timeout below keepalive", func(c *Config) { c.Hub.ServerTimeout = 10 * time.Second }, "HUB_SERVER_TIMEOUT"},
		{"negative reconnect attempts", func(c *Config) { c.Hub.MaxReconnectAttempts = -1 }, "HUB_MAX_RECONNECT_ATTEMPTS"},
		{"rate limit without burst", func(c *Config) { c.Hub.SendRateLimit = 2; c.Hub.SendBurst = 0 }, "HUB_SEND_BURST"},
		{"breaker zero threshold", func(c *Config) { c.Hub.BreakerFailureThreshold = 0 }, "HUB_BREAKER_FAILURE_THRESHOLD"},
		{"breaker disabled ignores threshold", func(c *Config) { c.Hub.BreakerEnabled = false; c.Hub.BreakerFailureThreshold = 0 }, ""},
		{"zero capacity", func(c *Config) { c.History.Capacity = 0 }, "HISTORY_CAPACITY"},
		{"unknown mode", func(c *Config) { c.Publish.Mode = "replay" }, "PUBLISH_MODE"},
		{"mode case-insensitive", func(c *Config) { c.Publish.Mode = "MOCK" }, ""},
		{"interval too small", func(c *Config) { c.Publish.Interval = time.Millisecond }, "PUBLISH_INTERVAL"},
		{"auto start without sender", func(c *Config) { c.Publish.AutoStart = true }, "PUBLISH_SENDER_ID"},
		{"default lat out of range", func(c *Config) { c.Publish.DefaultLat = 95 }, "PUBLISH_DEFAULT_LAT"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"rate limit zero", func(c *Config) { c.Security.RateLimitReqs = 0 }, "RATE_LIMIT_REQUESTS"},
		{"rate limit disabled", func(c *Config) { c.Security.RateLimitReqs = 0; c.Security.RateLimitDisabled = true }, ""},
		{"relay bad url", func(c *Config) { c.Relay.Enabled = true; c.Relay.URL = "http://nats" }, "NATS_URL"},
		{"relay wildcard prefix", func(c *Config) { c.Relay.Enabled = true; c.Relay.SubjectPrefix = "beacon.*" }, "RELAY_SUBJECT_PREFIX"},
		{"relay valid", func(c *Config) { c.Relay.Enabled = true }, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestPublishModeAccessor(t *testing.T) {
	cfg := defaultConfig()
	if cfg.PublishMode() != models.ModeLive {
		t.Errorf("PublishMode() = %q, want live", cfg.PublishMode())
	}
	cfg.Publish.Mode = "Mock"
	if cfg.PublishMode() != models.ModeMock {
		t.Errorf("PublishMode() = %q, want mock", cfg.PublishMode())
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8081}
	if s.Addr() != "127.0.0.1:8081" {
		t.Errorf("Addr() = %q", s.Addr())
	}
}
