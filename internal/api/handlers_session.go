// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/models"
	"github.com/tomtom215/beacon/internal/publisher"
)

// PositionRequest is the body of PUT /session/position.
type PositionRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lon *float64 `json:"lon" validate:"required,longitude"`
}

// SenderRequest is the body of PUT /session/sender.
type SenderRequest struct {
	SenderID string `json:"sender_id" validate:"required,senderid"`
}

// ModeRequest is the body of PUT /session/mode.
type ModeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

// AutoPublishRequest is the body of POST /autopublish/start. Interval is a
// Go duration string ("5s"); empty means the configured default.
type AutoPublishRequest struct {
	SenderID string `json:"sender_id" validate:"required,senderid"`
	Interval string `json:"interval,omitempty"`
}

// minAutoPublishInterval keeps auto-publish from flooding the hub.
const minAutoPublishInterval = 100 * time.Millisecond

// Session returns the publish session snapshot.
func (h *Handler) Session(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, h.pipeline.Session(), nil)
}

// SetPosition sets the session coordinates.
func (h *Handler) SetPosition(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.pipeline.SetPosition(*req.Lat, *req.Lon); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, h.pipeline.Session(), nil)
}

// SetSender sets the session sender identity.
func (h *Handler) SetSender(w http.ResponseWriter, r *http.Request) {
	var req SenderRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.pipeline.SetSender(req.SenderID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, h.pipeline.Session(), nil)
}

// SetMode switches between live and mock publishing.
func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	mode, err := models.ParsePublishMode(req.Mode)
	if err != nil {
		respondErrorDetails(w, http.StatusBadRequest, CodeValidation, err.Error(), map[string]any{"field": "mode"})
		return
	}
	h.pipeline.SetMode(mode)
	respondSuccess(w, http.StatusOK, h.pipeline.Session(), nil)
}

// SimulateMovement jitters the session position without publishing.
func (h *Handler) SimulateMovement(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, h.pipeline.SimulateMovement(), nil)
}

// Publish sends one location. Validation failures are 400, a disconnected
// hub 503 and a rejected invocation 502.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	var req publisher.PublishRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON body: "+err.Error(), nil)
		return
	}
	result, err := h.pipeline.PublishOnce(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, result, nil)
}

// PublishTest sends a random point near the default position.
func (h *Handler) PublishTest(w http.ResponseWriter, r *http.Request) {
	result, err := h.pipeline.SendTestLocation(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, result, nil)
}

// StartAutoPublish starts (or restarts) periodic publishing.
func (h *Handler) StartAutoPublish(w http.ResponseWriter, r *http.Request) {
	var req AutoPublishRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	var interval time.Duration
	if req.Interval != "" {
		d, err := time.ParseDuration(req.Interval)
		if err != nil || d < minAutoPublishInterval {
			respondErrorDetails(w, http.StatusBadRequest, CodeValidation,
				"interval must be a duration of at least "+minAutoPublishInterval.String(),
				map[string]any{"field": "interval"})
			return
		}
		interval = d
	}

	if err := h.pipeline.StartAutoPublish(req.SenderID, interval); err != nil {
		respondServiceError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("sender", sanitizeLogValue(req.SenderID)).Msg("Auto-publish started via API")
	respondSuccess(w, http.StatusOK, h.pipeline.Session(), nil)
}

// StopAutoPublish stops periodic publishing. Stopping when idle succeeds.
func (h *Handler) StopAutoPublish(w http.ResponseWriter, _ *http.Request) {
	h.pipeline.StopAutoPublish()
	respondSuccess(w, http.StatusOK, h.pipeline.Session(), nil)
}

// decodeAndValidate decodes the body into v and validates it, writing the
// error response itself. It reports whether the handler should continue.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeJSON(w, r, v); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON body: "+err.Error(), nil)
		return false
	}
	if apiErr := validateRequest(v); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return false
	}
	return true
}
