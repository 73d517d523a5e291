// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

// Package logging provides the process-wide zerolog logger used by every
// Beacon component.
//
// The logger is configured once from main via Init and read through the
// package-level helpers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("sender", id).Msg("location published")
//
// Components that want a fixed "component" field build a child logger with
// WithComponent. HTTP handlers log through Ctx(ctx), which adds the request
// and correlation IDs stored by the API middleware.
//
// The slog adapter (NewSlogLogger) routes suture supervisor events into the
// same zerolog output.
//
// Always terminate log chains with .Msg() or .Send(); an unterminated event
// is never written.
package logging
