// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/fleetwatch/internal/brigade"
	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/metrics"
	"github.com/tomtom215/fleetwatch/internal/models"
)

// tickFunc performs one unit of sync work and returns the number of records written.
type tickFunc func(ctx context.Context) (int, error)

// tickResult is handed to the completion hook after every tick.
type tickResult struct {
	Scheduler string
	Records   int
	Duration  time.Duration
	Err       error
}

// scheduler runs a tickFunc on a fixed interval and tracks its state.
type scheduler struct {
	name         string
	interval     time.Duration
	initialDelay time.Duration
	run          tickFunc
	now          func() time.Time
	onComplete   func(tickResult)

	trigger chan struct{}
	tickMu  sync.Mutex // held for the duration of a tick

	mu     sync.RWMutex
	status models.SchedulerStatus
}

func newScheduler(name string, interval, initialDelay time.Duration, run tickFunc) *scheduler {
	return &scheduler{
		name:         name,
		interval:     interval,
		initialDelay: initialDelay,
		run:          run,
		now:          time.Now,
		trigger:      make(chan struct{}, 1),
		status: models.SchedulerStatus{
			Name:     name,
			State:    models.SchedulerIdle,
			Interval: interval.String(),
		},
	}
}

// loop runs ticks until ctx is cancelled or stop is closed.
func (s *scheduler) loop(ctx context.Context, stop <-chan struct{}) {
	timer := time.NewTimer(s.initialDelay)
	defer timer.Stop()
	s.setNextRun(s.initialDelay)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-timer.C:
		case <-s.trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		s.tickMu.Lock()
		_ = s.tick(ctx) //nolint:errcheck // logged and recorded inside tick
		s.tickMu.Unlock()

		if ctx.Err() != nil {
			return
		}
		timer.Reset(s.interval)
		s.setNextRun(s.interval)
	}
}

// runOnce performs a tick synchronously unless one is already running.
func (s *scheduler) runOnce(ctx context.Context) error {
	if !s.tickMu.TryLock() {
		return ErrSyncInProgress
	}
	defer s.tickMu.Unlock()
	return s.tick(ctx)
}

// requestRun wakes the loop for an immediate tick.
func (s *scheduler) requestRun() error {
	if s.State() == models.SchedulerRunning {
		return ErrSyncInProgress
	}
	select {
	case s.trigger <- struct{}{}:
	default:
		// a run is already queued
	}
	return nil
}

// tick must be called with tickMu held.
func (s *scheduler) tick(ctx context.Context) error {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx).With().Str("scheduler", s.name).Logger()

	started := s.now()
	s.mu.Lock()
	s.status.State = models.SchedulerRunning
	s.status.NextRun = nil
	s.mu.Unlock()
	metrics.SetSchedulerState(s.name, stateValue(models.SchedulerRunning))

	log.Debug().Msg("Sync tick started")
	records, err := s.run(ctx)
	duration := s.now().Sub(started)

	s.mu.Lock()
	s.status.Runs++
	s.status.LastRun = &started
	s.status.LastCount = records
	if err != nil {
		s.status.State = models.SchedulerBackoff
		s.status.Failures++
		s.status.ConsecutiveFailures++
		s.status.LastError = err.Error()
	} else {
		finished := started.Add(duration)
		s.status.State = models.SchedulerIdle
		s.status.LastSuccess = &finished
		s.status.ConsecutiveFailures = 0
		s.status.LastError = ""
	}
	state := s.status.State
	failures := s.status.ConsecutiveFailures
	s.mu.Unlock()

	metrics.SetSchedulerState(s.name, stateValue(state))
	metrics.RecordSyncTick(s.name, duration, records, errorType(err))

	if err != nil {
		log.Error().Err(err).
			Str("error_type", errorType(err)).
			Int("records", records).
			Int("consecutive_failures", failures).
			Dur("duration", duration).
			Msg("Sync tick failed")
	} else {
		log.Info().Int("records", records).Dur("duration", duration).Msg("Sync tick completed")
	}

	if s.onComplete != nil {
		s.onComplete(tickResult{Scheduler: s.name, Records: records, Duration: duration, Err: err})
	}
	return err
}

func (s *scheduler) setNextRun(after time.Duration) {
	next := s.now().Add(after)
	s.mu.Lock()
	s.status.NextRun = &next
	s.mu.Unlock()
}

// State returns the current scheduler state.
func (s *scheduler) State() models.SchedulerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.State
}

// Status returns a copy of the scheduler status.
func (s *scheduler) Status() models.SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.LastRun = copyTime(st.LastRun)
	st.LastSuccess = copyTime(st.LastSuccess)
	st.NextRun = copyTime(st.NextRun)
	return st
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func stateValue(state models.SchedulerState) float64 {
	switch state {
	case models.SchedulerRunning:
		return 1
	case models.SchedulerBackoff:
		return 2
	default:
		return 0
	}
}

// errorType labels a tick error for sync_errors_total.
func errorType(err error) string {
	var ioErr *database.IOError
	var constraintErr *database.ConstraintError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_open"
	case errors.As(err, &ioErr), errors.As(err, &constraintErr):
		return "storage"
	default:
		return brigade.ErrorType(err)
	}
}
