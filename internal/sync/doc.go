// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

/*
Package sync pulls fleet data from the Brigade vendor API into local storage.

Three schedulers run side by side, each on its own goroutine:

  - devices:   device groups and the device registry (default every 10m)
  - positions: the last known fix of every stored device (default every 30s)
  - alarms:    alarm events inside a sliding lookback window (default every 5m),
    plus the retention purge once per purge interval

Scheduler States:

	idle --timer or trigger--> running --ok--> idle
	                           running --error--> backoff --timer or trigger--> running

Ticks of one scheduler never overlap. A tick that outlasts its interval
delays the next one. A failed tick is logged, counted in
sync_errors_total and retried on the next timer; it never stops the process.

Usage:

	manager := sync.NewManager(db, brigadeClient, cfg.Sync, publisher, hub)
	if err := manager.Start(ctx); err != nil {
	    return err
	}
	defer manager.Stop()

	// Force an out-of-schedule run
	if err := manager.Trigger(sync.SchedulerAlarms); errors.Is(err, sync.ErrSyncInProgress) {
	    // already running
	}

The Manager satisfies services.StartStopManager, so the supervisor tree runs
it as a suture service.

Thread Safety:
  - Status, Trigger and RunOnce are safe from any goroutine
  - Storage writes for one row are serialized by the database layer
*/
package sync
