// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

/*
Package middleware provides the infrastructure HTTP middleware of the query API.

Key Components:

  - RequestID: accepts or generates X-Request-ID and seeds the logging context
  - AccessLog: one structured log line per request, warn for slow or failed requests
  - PrometheusMetrics: api_requests_total and api_request_duration_seconds by chi route
  - Compression: gzip for clients that send Accept-Encoding: gzip

All components use the standard func(http.Handler) http.Handler shape, so
they plug straight into chi:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(time.Second))
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)

CORS and rate limiting come from go-chi/cors and go-chi/httprate and are
assembled in internal/api.

The status-capturing writer forwards Hijack and Flush, so the WebSocket
endpoint can sit behind the same stack.
*/
package middleware
