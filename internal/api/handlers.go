// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/models"
	ws "github.com/tomtom215/fleetwatch/internal/websocket"
)

// Store is the read side of the database used by the handlers.
type Store interface {
	ListDevices(ctx context.Context, filter models.DeviceFilter) ([]models.Device, error)
	ListDeviceGroups(ctx context.Context) ([]models.DeviceGroup, error)
	GetDevice(ctx context.Context, terid string) (*models.Device, error)
	QueryPositions(ctx context.Context, filter models.PositionFilter) ([]models.PositionView, error)
	GetPosition(ctx context.Context, terid string) (*models.PositionView, error)
	QueryAlarms(ctx context.Context, filter models.AlarmFilter) ([]models.AlarmView, error)
	GetAlarm(ctx context.Context, id int64) (*models.AlarmDetail, error)
	AlarmTypeCounts(ctx context.Context) ([]models.AlarmTypeCount, error)
	GetStats(ctx context.Context, now time.Time) (*models.Stats, error)
	Ping(ctx context.Context) error
}

var _ Store = (*database.DB)(nil)

// SyncController is the part of the sync manager exposed over HTTP.
type SyncController interface {
	Status() []models.SchedulerStatus
	Trigger(name string) error
}

// Handler contains the dependencies of the API handlers.
//
// Handler methods are split across files by resource:
//   - handlers_devices.go: devices and device groups
//   - handlers_positions.go: current positions
//   - handlers_alarms.go: alarms, heatmap, alarm types, stats
//   - handlers_sync.go: scheduler status and forced sync
//   - handlers_health.go: liveness and readiness
//   - handlers_websocket.go: live feed upgrade
type Handler struct {
	store     Store
	sync      SyncController
	wsHub     *ws.Hub
	config    *config.Config
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates the API handler. sync and wsHub may be nil, in which
// case the endpoints that need them answer 503.
func NewHandler(store Store, syncCtl SyncController, wsHub *ws.Hub, cfg *config.Config) *Handler {
	return &Handler{
		store:     store,
		sync:      syncCtl,
		wsHub:     wsHub,
		config:    cfg,
		startTime: time.Now(),
		now:       time.Now,
	}
}

func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts same-host requests, requests without an Origin
// header (non-browser clients) and origins listed in security.cors_origins.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if h.config == nil {
		return true
	}

	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// location is the zone of the vendor clock, used for dates given without a zone.
func (h *Handler) location() *time.Location {
	if h.config == nil {
		return time.UTC
	}
	return h.config.Brigade.Location()
}

// apiLimits returns the configured default and maximum list sizes.
func (h *Handler) apiLimits() (defaultLimit, maxLimit int) {
	defaultLimit, maxLimit = models.DefaultAlarmLimit, models.MaxAlarmLimit
	if h.config != nil {
		if h.config.API.DefaultLimit > 0 {
			defaultLimit = h.config.API.DefaultLimit
		}
		if h.config.API.MaxLimit > 0 {
			maxLimit = h.config.API.MaxLimit
		}
	}
	return defaultLimit, maxLimit
}
