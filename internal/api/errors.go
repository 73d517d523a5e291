// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/beacon/internal/hub"
	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/publisher"
)

// API error codes.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeNotConnected = "NOT_CONNECTED"
	CodeTransport    = "TRANSPORT_ERROR"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInternal     = "INTERNAL_ERROR"
	CodeBadRequest   = "BAD_REQUEST"
	CodeRateLimited  = "RATE_LIMITED"
)

// ErrEmptyBody is returned when a request that needs a body has none.
var ErrEmptyBody = errors.New("request body is empty")

// respondServiceError maps an error from the hub or publisher packages to
// a status code and error code.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *publisher.ValidationError
	var transportErr *hub.TransportError

	switch {
	case errors.As(err, &validationErr):
		apiErr := validationErr.Err.ToAPIError()
		respondErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
	case errors.Is(err, publisher.ErrNoPosition):
		respondError(w, http.StatusConflict, CodeConflict, err.Error(), nil)
	case errors.Is(err, hub.ErrNotConnected):
		respondError(w, http.StatusServiceUnavailable, CodeNotConnected, err.Error(), nil)
	case errors.Is(err, hub.ErrManagerClosed):
		respondError(w, http.StatusServiceUnavailable, CodeUnavailable, err.Error(), nil)
	case errors.As(err, &transportErr):
		respondError(w, http.StatusBadGateway, CodeTransport, transportErr.Error(), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusServiceUnavailable, CodeUnavailable, "request cancelled", nil)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Unhandled API error")
		respondError(w, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
	}
}
