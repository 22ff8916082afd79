// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package brigade

import "time"

// DefaultTokenTTL is how long an issued key is used. The vendor expires keys
// after one hour.
const DefaultTokenTTL = 50 * time.Minute

// Token is a vendor API key and its validity window. It only lives in memory.
type Token struct {
	Key       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func newToken(key string, issued time.Time, ttl time.Duration) Token {
	return Token{Key: key, IssuedAt: issued, ExpiresAt: issued.Add(ttl)}
}

// Valid reports whether the key can be used at now.
func (t Token) Valid(now time.Time) bool {
	return t.Key != "" && now.Before(t.ExpiresAt)
}
