// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// Package config loads Fleetwatch configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values for every setting
//  2. Config File: optional YAML file (CONFIG_PATH, ./config.yaml, /etc/fleetwatch/config.yaml)
//  3. Environment Variables: explicit mapping table, highest priority
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load config")
//	}
//	client := brigade.NewClient(cfg.Brigade)
package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // vendor time zones must resolve on minimal images
)

// Config holds all application configuration.
type Config struct {
	Brigade  BrigadeConfig  `koanf:"brigade"`
	Sync     SyncConfig     `koanf:"sync"`
	Database DatabaseConfig `koanf:"database"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	API      APIConfig      `koanf:"api"`
	Events   EventsConfig   `koanf:"events"`
	Import   ImportConfig   `koanf:"import"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// BrigadeConfig holds the vendor API connection settings.
//
// Environment Variables:
//   - BRIGADE_API_URL / BRIGADE_BASE_URL: vendor base URL (required)
//   - BRIGADE_USERNAME, BRIGADE_PASSWORD: account credentials (required)
//   - BRIGADE_API_TIMEOUT: per-attempt timeout (default: 30s)
//   - BRIGADE_RETRY_ATTEMPTS: attempts per operation (default: 3)
//   - BRIGADE_RETRY_DELAY: initial retry delay, doubled per attempt (default: 5s)
//   - BRIGADE_RATE_LIMIT, BRIGADE_RATE_BURST: outbound request rate (default: 10/s, burst 5)
//   - BRIGADE_TIME_ZONE: IANA zone the vendor expects timestamps in (default: UTC)
type BrigadeConfig struct {
	BaseURL       string        `koanf:"base_url"`
	Username      string        `koanf:"username"`
	Password      string        `koanf:"password"`
	Timeout       time.Duration `koanf:"timeout"`
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
	RateLimit     float64       `koanf:"rate_limit"`
	RateBurst     int           `koanf:"rate_burst"`
	TimeZone      string        `koanf:"time_zone"`

	// TokenTTL is how long an issued key is trusted before re-authenticating.
	// Vendor keys live one hour; the default leaves a ten minute margin.
	TokenTTL time.Duration `koanf:"token_ttl"`
}

// Location resolves TimeZone, falling back to UTC.
func (b BrigadeConfig) Location() *time.Location {
	if b.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(b.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SyncConfig holds the scheduler settings.
type SyncConfig struct {
	DeviceInterval   time.Duration `koanf:"device_interval"`
	PositionInterval time.Duration `koanf:"position_interval"`
	AlarmInterval    time.Duration `koanf:"alarm_interval"`

	// Lookback is the alarm query window ending at the tick time.
	Lookback time.Duration `koanf:"lookback"`

	// BatchSize is the number of terminal IDs per vendor request.
	BatchSize int `koanf:"batch_size"`

	RetentionDays    int           `koanf:"retention_days"`
	PurgeInterval    time.Duration `koanf:"purge_interval"`
	StartupDelay     time.Duration `koanf:"startup_delay"`
	OfflineThreshold time.Duration `koanf:"offline_threshold"`
}

// DatabaseConfig holds DuckDB settings
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use NumCPU
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds CORS and request rate limiting settings
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// APIConfig holds result size limits for list endpoints
type APIConfig struct {
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`
}

// EventsConfig controls the sync event fan-out.
//
// Backend "gochannel" keeps events in process. Backend "nats" publishes through
// a NATS server, started embedded when EmbeddedServer is true.
type EventsConfig struct {
	Enabled        bool   `koanf:"enabled"`
	Backend        string `koanf:"backend"`
	NATSURL        string `koanf:"nats_url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
}

// ImportConfig holds settings for importing a legacy tracker SQLite database.
type ImportConfig struct {
	Enabled bool `koanf:"enabled"`

	// DBPath is the SQLite file to read.
	DBPath string `koanf:"db_path"`

	// BatchSize is the number of alarm rows per batch. Default: 1000
	BatchSize int `koanf:"batch_size"`

	// ProgressPath is a BadgerDB directory for resumable progress.
	// Empty keeps progress in memory only.
	ProgressPath string `koanf:"progress_path"`

	// DryRun reads and maps everything without writing.
	DryRun bool `koanf:"dry_run"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// Load reads configuration from defaults, the optional config file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
