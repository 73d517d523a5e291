// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_Enabled(t *testing.T) {
	t.Parallel()

	h := NewSlogHandlerWithLogger(zerolog.New(&bytes.Buffer{}).Level(zerolog.WarnLevel))

	tests := []struct {
		level slog.Level
		want  bool
	}{
		{slog.LevelDebug, false},
		{slog.LevelInfo, false},
		{slog.LevelWarn, true},
		{slog.LevelError, true},
	}
	for _, tt := range tests {
		if got := h.Enabled(context.Background(), tt.level); got != tt.want {
			t.Errorf("Enabled(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestSlogHandler_Handle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))

	logger.Warn("service restarted",
		slog.String("service", "hub-connection"),
		slog.Int("attempt", 3),
		slog.Duration("backoff", 2*time.Second),
		slog.Bool("failed", true),
	)

	output := buf.String()
	for _, want := range []string{
		`"level":"warn"`,
		`"service":"hub-connection"`,
		`"attempt":3`,
		`"failed":true`,
		"service restarted",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output, got: %s", want, output)
		}
	}
}

func TestSlogHandler_WithGroupAndAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := NewSlogHandlerWithLogger(zerolog.New(&buf))
	logger := slog.New(base.WithAttrs([]slog.Attr{slog.String("tree", "beacon")}).WithGroup("supervisor"))

	logger.Info("event", slog.String("name", "messaging-layer"))

	output := buf.String()
	if !strings.Contains(output, `"supervisor.tree":"beacon"`) && !strings.Contains(output, `"tree":"beacon"`) {
		t.Errorf("expected tree attribute, got: %s", output)
	}
	if !strings.Contains(output, `"supervisor.name":"messaging-layer"`) {
		t.Errorf("expected grouped key, got: %s", output)
	}
}

func TestSlogHandler_NestedGroupAttr(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))

	logger.Info("nested", slog.Group("hub", slog.String("state", "connected")))

	if !strings.Contains(buf.String(), `"hub.state":"connected"`) {
		t.Errorf("expected flattened group key, got: %s", buf.String())
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := slogToZerologLevel(tt.in); got != tt.want {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSlogHandler_DropsEmptyAndInlinesUnnamedGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))

	logger.Info("inline", slog.Attr{}, slog.Group("", slog.String("layer", "api-layer")))

	output := buf.String()
	if !strings.Contains(output, `"layer":"api-layer"`) {
		t.Errorf("expected inlined group attr, got: %s", output)
	}
	if strings.Contains(output, `"":`) {
		t.Errorf("empty attribute written: %s", output)
	}
}
