// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package brigade

import (
	"context"
	"time"

	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/metrics"
)

// RetryPolicy retries AuthError and TransientNetworkError with a delay that
// doubles after every failed attempt. Any other error stops immediately.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempts are exhausted. Exhaustion yields a *RetryError wrapping the last error.
// Waits between attempts are cancelled by ctx.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		metrics.BrigadeRetries.WithLabelValues(op).Inc()
		logging.Warn().Err(err).Str("operation", op).Int("attempt", attempt).Int("max_attempts", attempts).Dur("delay", delay).Msg("Vendor call failed, retrying")

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
		delay *= 2
	}

	return &RetryError{Op: op, Attempts: attempts, Err: err}
}
