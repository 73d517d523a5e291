// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package publisher

import (
	"errors"

	"github.com/tomtom215/beacon/internal/validation"
)

// ErrNoPosition is returned when auto-publish is started without coordinates.
var ErrNoPosition = errors.New("no current position: set lat and lon first")

// ValidationError is returned for rejected input. Nothing was sent.
type ValidationError struct {
	Err *validation.RequestValidationError
}

func (e *ValidationError) Error() string {
	return "invalid publish request: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(verr *validation.RequestValidationError) error {
	if verr == nil {
		return nil
	}
	return &ValidationError{Err: verr}
}
