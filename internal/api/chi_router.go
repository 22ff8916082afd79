// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/fleetwatch/internal/middleware"
)

// Router assembles the handler and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. The CORS origins and rate limits come from the
// security section of the handler's config.
func NewRouter(handler *Handler) *Router {
	var mwConfig *ChiMiddlewareConfig
	if handler.config != nil {
		mwConfig = ChiMiddlewareConfigFromSecurity(handler.config.Security)
	}

	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Applied to every route, in order.
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(middleware.DefaultSlowRequestThreshold))
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.Route("/api/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(APISecurityHeaders())

		// The live feed is not compressed: gzip cannot wrap a hijacked connection.
		r.With(router.chiMiddleware.RateLimitWebSocket()).Get("/ws", router.handler.WebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Compression)
			r.Use(router.chiMiddleware.RateLimit())

			r.Get("/devices", router.handler.Devices)
			r.Get("/device-groups", router.handler.DeviceGroups)
			r.Get("/gps/positions", router.handler.Positions)
			r.Get("/gps/position/{terid}", router.handler.Position)
			r.Get("/alarms", router.handler.Alarms)
			r.Get("/alarms/heatmap", router.handler.AlarmsHeatmap)
			r.Get("/alarm/{id}", router.handler.Alarm)
			r.Get("/alarm-types", router.handler.AlarmTypes)
			r.Get("/stats", router.handler.Stats)
			r.Get("/sync/status", router.handler.SyncStatus)
		})

		r.With(middleware.Compression, router.chiMiddleware.RateLimitSync()).Post("/sync/{scheduler}", router.handler.TriggerSync)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return r
}
