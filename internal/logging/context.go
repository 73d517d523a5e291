// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type (
	correlationIDKey struct{}
	requestIDKey     struct{}
)

// GenerateCorrelationID returns an 8 character ID tying together the log
// lines of one publish or reconnect.
func GenerateCorrelationID() string {
	return uuid.NewString()[:8]
}

// GenerateRequestID returns a UUID for an HTTP request.
func GenerateRequestID() string {
	return uuid.NewString()
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// ContextWithNewCorrelationID attaches a fresh correlation ID.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Ctx returns the global logger with the IDs carried by ctx.
//
//	logging.Ctx(ctx).Info().Msg("publish accepted")
func Ctx(ctx context.Context) *zerolog.Logger {
	logCtx := With()
	for field, id := range map[string]string{
		"correlation_id": CorrelationIDFromContext(ctx),
		"request_id":     RequestIDFromContext(ctx),
	} {
		if id != "" {
			logCtx = logCtx.Str(field, id)
		}
	}
	logger := logCtx.Logger()
	return &logger
}

// WithComponent tags a child logger with its subsystem.
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}
