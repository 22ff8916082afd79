// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateBrigade(); err != nil {
		return err
	}

	if err := c.validateSync(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateAPI(); err != nil {
		return err
	}

	if err := c.validateEvents(); err != nil {
		return err
	}

	if err := c.validateImport(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateBrigade validates vendor API settings. URL and credentials are required.
func (c *Config) validateBrigade() error {
	if c.Brigade.BaseURL == "" {
		return fmt.Errorf("BRIGADE_API_URL is required")
	}
	if err := validateHTTPURL(c.Brigade.BaseURL, "BRIGADE_API_URL"); err != nil {
		return fmt.Errorf("BRIGADE_API_URL is invalid: %w", err)
	}
	if c.Brigade.Username == "" {
		return fmt.Errorf("BRIGADE_USERNAME is required")
	}
	if c.Brigade.Password == "" {
		return fmt.Errorf("BRIGADE_PASSWORD is required")
	}
	if containsPlaceholder(c.Brigade.Password) {
		return fmt.Errorf("BRIGADE_PASSWORD looks like a placeholder, set the real account password")
	}
	if c.Brigade.Timeout <= 0 {
		return fmt.Errorf("BRIGADE_API_TIMEOUT must be positive")
	}
	if c.Brigade.RetryAttempts < 1 || c.Brigade.RetryAttempts > 10 {
		return fmt.Errorf("BRIGADE_RETRY_ATTEMPTS must be between 1 and 10")
	}
	if c.Brigade.RetryDelay < 0 {
		return fmt.Errorf("BRIGADE_RETRY_DELAY must not be negative")
	}
	if c.Brigade.RateLimit <= 0 || c.Brigade.RateBurst < 1 {
		return fmt.Errorf("BRIGADE_RATE_LIMIT must be positive and BRIGADE_RATE_BURST at least 1")
	}
	if c.Brigade.TokenTTL <= 0 || c.Brigade.TokenTTL > time.Hour {
		return fmt.Errorf("BRIGADE_TOKEN_TTL must be between 0 and 1h")
	}
	if c.Brigade.TimeZone != "" {
		if _, err := time.LoadLocation(c.Brigade.TimeZone); err != nil {
			return fmt.Errorf("BRIGADE_TIME_ZONE is invalid: %w", err)
		}
	}
	return nil
}

// validateSync validates scheduler intervals and batch sizes
func (c *Config) validateSync() error {
	intervals := map[string]time.Duration{
		"SYNC_DEVICE_INTERVAL":   c.Sync.DeviceInterval,
		"SYNC_POSITION_INTERVAL": c.Sync.PositionInterval,
		"SYNC_ALARM_INTERVAL":    c.Sync.AlarmInterval,
		"SYNC_LOOKBACK":          c.Sync.Lookback,
		"SYNC_PURGE_INTERVAL":    c.Sync.PurgeInterval,
		"SYNC_OFFLINE_THRESHOLD": c.Sync.OfflineThreshold,
	}
	for name, d := range intervals {
		if d < time.Second {
			return fmt.Errorf("%s must be at least 1s, got %v", name, d)
		}
	}
	if c.Sync.StartupDelay < 0 {
		return fmt.Errorf("SYNC_STARTUP_DELAY must not be negative")
	}
	if c.Sync.BatchSize < 1 || c.Sync.BatchSize > 1000 {
		return fmt.Errorf("SYNC_BATCH_SIZE must be between 1 and 1000")
	}
	if c.Sync.RetentionDays < 1 {
		return fmt.Errorf("SYNC_RETENTION_DAYS must be at least 1")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive")
	}
	return nil
}

// validateSecurity validates security configuration
func (c *Config) validateSecurity() error {
	if len(c.Security.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must list at least one origin")
	}
	return c.validateRateLimits()
}

// HasWildcardCORS reports whether any origin is allowed.
func (c *Config) HasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// Rate limit constants
const (
	minRateLimitRequests = 1           // Minimum 1 request allowed
	maxRateLimitRequests = 100000      // Maximum 100K requests per window
	minRateLimitWindow   = time.Second // Minimum 1 second window
	maxRateLimitWindow   = time.Hour   // Maximum 1 hour window
)

// validateRateLimits validates rate limiting configuration bounds.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}

	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.MaxLimit < 1 {
		return fmt.Errorf("API_MAX_LIMIT must be at least 1")
	}
	if c.API.DefaultLimit < 1 || c.API.DefaultLimit > c.API.MaxLimit {
		return fmt.Errorf("API_DEFAULT_LIMIT must be between 1 and API_MAX_LIMIT (%d)", c.API.MaxLimit)
	}
	return nil
}

// validEventBackends defines the allowed event backends
var validEventBackends = map[string]bool{
	"gochannel": true,
	"nats":      true,
}

// validateEvents validates event fan-out configuration (only if enabled)
func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	if !validEventBackends[c.Events.Backend] {
		return fmt.Errorf("EVENTS_BACKEND must be one of: gochannel, nats")
	}
	if c.Events.Backend != "nats" {
		return nil
	}
	if err := validateNATSURL(c.Events.NATSURL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if c.Events.EmbeddedServer && c.Events.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	return nil
}

// validateImport validates legacy import configuration (only if enabled)
func (c *Config) validateImport() error {
	if !c.Import.Enabled {
		return nil
	}
	if c.Import.DBPath == "" {
		return fmt.Errorf("IMPORT_DB_PATH is required when IMPORT_ENABLED=true")
	}
	if c.Import.BatchSize < 1 || c.Import.BatchSize > 100000 {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be between 1 and 100000")
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_PASSWORD",
	"PLACEHOLDER",
}

// containsPlaceholder checks if a value contains a common placeholder pattern
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
