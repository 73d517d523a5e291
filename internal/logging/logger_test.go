// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got '%s'", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected default format 'json', got '%s'", cfg.Format)
	}
	if cfg.NoTimestamp {
		t.Error("expected timestamps on by default")
	}
}

func TestInit_TimestampByDefault(t *testing.T) {
	var buf bytes.Buffer

	Init(Config{Output: &buf})
	defer Init(Config{Level: "info", Output: &bytes.Buffer{}})

	Info().Msg("tick")
	if !strings.Contains(buf.String(), `"time":`) {
		t.Errorf("expected time field, got: %s", buf.String())
	}

	buf.Reset()
	Init(Config{Output: &buf, NoTimestamp: true})
	Info().Msg("tick")
	if strings.Contains(buf.String(), `"time":`) {
		t.Errorf("expected no time field, got: %s", buf.String())
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer

	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(Config{Level: "info", Output: &bytes.Buffer{}})

	Info().Str("sender", "a@x.com").Msg("location published")

	output := buf.String()
	if !strings.Contains(output, "location published") {
		t.Errorf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, `"sender":"a@x.com"`) {
		t.Errorf("expected sender field in output, got: %s", output)
	}
	if !strings.Contains(output, `"level":"info"`) {
		t.Errorf("expected level in output, got: %s", output)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"disabled", zerolog.Disabled},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer

	Init(Config{Level: "info", Format: "console", Output: &buf})
	defer Init(Config{Level: "info", Output: &bytes.Buffer{}})

	Warn().Msg("hub unreachable")

	output := buf.String()
	if !strings.Contains(output, "hub unreachable") {
		t.Errorf("expected message in console output, got: %s", output)
	}
	if strings.Contains(output, `"message"`) {
		t.Errorf("console output should not be JSON, got: %s", output)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer

	Init(Config{Level: "info", Output: &buf})
	defer Init(Config{Level: "info", Output: &bytes.Buffer{}})

	logger := WithComponent("hub")
	logger.Info().Msg("connected")

	if !strings.Contains(buf.String(), `"component":"hub"`) {
		t.Errorf("expected component field, got: %s", buf.String())
	}
}

func TestContextIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if CorrelationIDFromContext(ctx) != "" || RequestIDFromContext(ctx) != "" {
		t.Fatal("expected empty IDs on a bare context")
	}

	ctx = ContextWithNewCorrelationID(ctx)
	ctx = ContextWithRequestID(ctx, "req-1")

	if id := CorrelationIDFromContext(ctx); len(id) != 8 {
		t.Errorf("expected 8-character correlation ID, got %q", id)
	}
	if id := RequestIDFromContext(ctx); id != "req-1" {
		t.Errorf("expected request ID req-1, got %q", id)
	}
}

func TestGenerateIDsAreUnique(t *testing.T) {
	t.Parallel()

	if GenerateRequestID() == GenerateRequestID() {
		t.Error("expected unique request IDs")
	}
	if len(GenerateRequestID()) != 36 {
		t.Error("expected UUID-formatted request ID")
	}
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(NewTestLogger(&buf))
	defer Init(Config{Level: "info", Output: &bytes.Buffer{}})

	ctx := ContextWithCorrelationID(context.Background(), "abcd1234")
	ctx = ContextWithRequestID(ctx, "req-42")
	Ctx(ctx).Info().Msg("handled")

	output := buf.String()
	if !strings.Contains(output, `"correlation_id":"abcd1234"`) {
		t.Errorf("expected correlation_id, got: %s", output)
	}
	if !strings.Contains(output, `"request_id":"req-42"`) {
		t.Errorf("expected request_id, got: %s", output)
	}
}
