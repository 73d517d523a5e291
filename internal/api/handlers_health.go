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
)

// LivenessResponse is served by the liveness probe.
type LivenessResponse struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime_seconds"`
}

// ReadinessResponse is served by the readiness probe.
type ReadinessResponse struct {
	Ready      bool                    `json:"ready"`
	Connection models.ConnectionStatus `json:"connection"`
}

// HealthLive reports that the process is serving requests.
//
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse{data=LivenessResponse}
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, LivenessResponse{
		Status: "alive",
		Uptime: time.Since(h.startTime).Seconds(),
	}, nil)
}

// HealthReady reports whether the hub connection is established. It
// answers 503 in any other state so load balancers can route around a
// relay that cannot reach its hub.
//
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse{data=ReadinessResponse}
// @Failure 503 {object} models.APIResponse{data=ReadinessResponse}
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	status := h.manager.Status()
	resp := ReadinessResponse{Ready: status.IsConnected(), Connection: status}

	code := http.StatusOK
	if !resp.Ready {
		code = http.StatusServiceUnavailable
	}
	respondSuccess(w, code, resp, nil)
}

// Status returns the connection status together with history, viewer and
// session summaries.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, models.StatusResponse{
		Connection:    h.manager.Status(),
		HistoryLength: h.history.Len(),
		HistoryCap:    h.history.Capacity(),
		Viewers:       h.wsHub.GetClientCount(),
		Session:       h.pipeline.Session(),
	}, nil)
}

// Reconnect asks the connection manager to retry immediately. It is a no-op
// unless the connection is Failed or Disconnected.
func (h *Handler) Reconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Reconnect(r.Context()); err != nil {
		respondServiceError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Msg("Manual reconnect requested")
	respondSuccess(w, http.StatusAccepted, h.manager.Status(), nil)
}
