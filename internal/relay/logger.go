// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package relay

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// WatermillLogger adapts zerolog to watermill.LoggerAdapter.
type WatermillLogger struct {
	logger zerolog.Logger
}

var _ watermill.LoggerAdapter = (*WatermillLogger)(nil)

// NewWatermillLogger returns an adapter writing to logger.
func NewWatermillLogger(logger zerolog.Logger) *WatermillLogger {
	return &WatermillLogger{logger: logger}
}

func (l *WatermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.logger.Error().Err(err).Fields(map[string]any(fields)).Msg(msg)
}

func (l *WatermillLogger) Info(msg string, fields watermill.LogFields) {
	l.logger.Info().Fields(map[string]any(fields)).Msg(msg)
}

func (l *WatermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.logger.Debug().Fields(map[string]any(fields)).Msg(msg)
}

func (l *WatermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.logger.Trace().Fields(map[string]any(fields)).Msg(msg)
}

// With returns an adapter that adds fields to every entry.
func (l *WatermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillLogger{logger: l.logger.With().Fields(map[string]any(fields)).Logger()}
}

// natsServerLogger routes embedded NATS server logs through zerolog.
// It satisfies the nats-server server.Logger interface.
type natsServerLogger struct {
	logger zerolog.Logger
}

func (l natsServerLogger) Noticef(format string, v ...any) {
	l.logger.Info().Msg(fmt.Sprintf(format, v...))
}

func (l natsServerLogger) Warnf(format string, v ...any) {
	l.logger.Warn().Msg(fmt.Sprintf(format, v...))
}

// Fatalf logs at error level; the server handles its own shutdown.
func (l natsServerLogger) Fatalf(format string, v ...any) {
	l.logger.Error().Bool("fatal", true).Msg(fmt.Sprintf(format, v...))
}

func (l natsServerLogger) Errorf(format string, v ...any) {
	l.logger.Error().Msg(fmt.Sprintf(format, v...))
}

func (l natsServerLogger) Debugf(format string, v ...any) {
	l.logger.Debug().Msg(fmt.Sprintf(format, v...))
}

func (l natsServerLogger) Tracef(format string, v ...any) {
	l.logger.Trace().Msg(fmt.Sprintf(format, v...))
}
