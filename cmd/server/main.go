// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/tomtom215/fleetwatch/docs" // swagger document
	"github.com/tomtom215/fleetwatch/internal/api"
	"github.com/tomtom215/fleetwatch/internal/brigade"
	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/supervisor"
	"github.com/tomtom215/fleetwatch/internal/supervisor/services"
	"github.com/tomtom215/fleetwatch/internal/sync"
	ws "github.com/tomtom215/fleetwatch/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Fleetwatch stopped with an error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	api.Version = version

	logging.Info().
		Str("version", version).
		Str("brigade_url", cfg.Brigade.BaseURL).
		Str("db_path", cfg.Database.Path).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting Fleetwatch")

	if cfg.HasWildcardCORS() {
		logging.Warn().Msg("CORS_ORIGINS=* allows any website to read the API; set explicit origins in production")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is disabled (DISABLE_RATE_LIMIT=true)")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	db.SetOfflineThreshold(cfg.Sync.OfflineThreshold)
	logging.Info().Msg("Database initialized")

	client := brigade.NewCircuitBreakerClient(brigade.NewClient(cfg.Brigade))

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  shutdownTimeout,
	})
	if err != nil {
		return err
	}

	wsHub := ws.NewHub()
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))

	eventComponents, err := InitEvents(cfg, wsHub, tree)
	if err != nil {
		return err
	}
	defer eventComponents.Close()

	syncManager := sync.NewManager(db, client, cfg.Sync, eventComponents.Publisher(), wsHub)
	syncManager.SetOnSyncCompleted(func(scheduler string, records int, durationMs int64) {
		logging.Debug().
			Str("scheduler", scheduler).
			Int("records", records).
			Int64("duration_ms", durationMs).
			Int("ws_clients", wsHub.GetClientCount()).
			Msg("Sync completed")
	})
	tree.AddMessagingService(services.NewSyncService(syncManager))

	handler := api.NewHandler(db, syncManager, wsHub, cfg)
	router := api.NewRouter(handler)
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, shutdownTimeout))

	importComponents, err := InitImport(cfg, db, tree)
	if err != nil {
		return err
	}
	defer importComponents.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Supervisor tree starting")
	err = tree.Serve(ctx)

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("Fleetwatch stopped")
	return nil
}
