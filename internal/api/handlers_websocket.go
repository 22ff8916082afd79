// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package api

import (
	"net/http"

	"github.com/tomtom215/fleetwatch/internal/logging"
	ws "github.com/tomtom215/fleetwatch/internal/websocket"
)

// WebSocket upgrades the connection and registers it with the live feed hub.
//
// @Summary Live feed
// @Description Upgrades to a WebSocket that receives positions, alarm and sync_completed messages
// @Tags Core
// @Success 101 "Switching protocols"
// @Failure 503 {object} models.APIError "Live feed not available"
// @Router /ws [get]
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Live feed not available", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	select {
	case h.wsHub.Register <- client:
	case <-r.Context().Done():
		_ = conn.Close()
		return
	}
	client.Start()
}
