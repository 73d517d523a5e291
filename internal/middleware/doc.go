// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package middleware provides HTTP middleware for the Beacon API.

Every middleware has the chi signature func(http.Handler) http.Handler.

Key Components:

  - RequestID: X-Request-ID propagation plus request and correlation IDs
    in the logging context
  - PrometheusMetrics: request count, duration and in-flight gauge, labelled
    by chi route pattern rather than raw path
  - Compression: gzip for JSON responses; WebSocket upgrades pass through

Middleware Stack:

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors)
	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(middleware.PrometheusMetrics)
	    r.Use(middleware.Compression)
	    ...
	})

PrometheusMetrics wraps the writer with chi's WrapResponseWriter so the
http.Hijacker needed by the WebSocket upgrade stays available.
*/
package middleware
