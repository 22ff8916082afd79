// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package middleware

import (
	"net/http"
	"time"

	"github.com/tomtom215/fleetwatch/internal/logging"
)

// DefaultSlowRequestThreshold is the duration above which a request is logged at warn level.
const DefaultSlowRequestThreshold = time.Second

// AccessLog writes one log line per request through the request-scoped
// logger. Requests slower than slowThreshold and 5xx responses are logged at
// warn level, everything else at debug.
func AccessLog(slowThreshold time.Duration) func(http.Handler) http.Handler {
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowRequestThreshold
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapper := newStatusRecorder(w)

			next.ServeHTTP(wrapper, r)

			duration := time.Since(start)
			log := logging.Ctx(r.Context())
			event := log.Debug()
			msg := "Request served"
			switch {
			case wrapper.statusCode >= http.StatusInternalServerError:
				event = log.Warn()
				msg = "Request failed"
			case duration > slowThreshold:
				event = log.Warn()
				msg = "Slow request detected"
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", routePattern(r)).
				Int("status", wrapper.statusCode).
				Int64("duration_ms", duration.Milliseconds()).
				Str("remote_addr", r.RemoteAddr).
				Msg(msg)
		})
	}
}
