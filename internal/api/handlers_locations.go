// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/beacon/internal/logging"
)

// Locations returns the history newest first. ?limit=N keeps the newest N.
func (h *Handler) Locations(w http.ResponseWriter, r *http.Request) {
	updates := h.history.All()
	if limit := getIntParam(r, "limit", 0); limit > 0 && limit < len(updates) {
		updates = updates[:limit]
	}
	respondSuccess(w, http.StatusOK, updates, intPtr(len(updates)))
}

// LatestLocations returns the newest update per sender.
func (h *Handler) LatestLocations(w http.ResponseWriter, _ *http.Request) {
	latest := h.history.Latest()
	respondSuccess(w, http.StatusOK, latest, intPtr(len(latest)))
}

// SenderLocation returns the newest update for the {sender} path parameter.
func (h *Handler) SenderLocation(w http.ResponseWriter, r *http.Request) {
	sender, err := url.PathUnescape(chi.URLParam(r, "sender"))
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid sender in path", nil)
		return
	}
	update, ok := h.history.LatestFor(sender)
	if !ok {
		respondError(w, http.StatusNotFound, CodeNotFound, "no location received for sender", nil)
		return
	}
	respondSuccess(w, http.StatusOK, update, nil)
}

// ClearLocations empties the history and tells viewers to clear their map.
func (h *Handler) ClearLocations(w http.ResponseWriter, r *http.Request) {
	cleared := h.history.Len()
	h.history.Clear()
	h.wsHub.BroadcastHistoryCleared()

	logging.Ctx(r.Context()).Info().Int("cleared", cleared).Msg("Location history cleared")
	respondSuccess(w, http.StatusOK, map[string]int{"cleared": cleared}, nil)
}
