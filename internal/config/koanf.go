// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/fleetwatch/config.yaml",
	"/etc/fleetwatch/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Brigade: BrigadeConfig{
			BaseURL:       "",
			Username:      "",
			Password:      "",
			Timeout:       30 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    5 * time.Second,
			RateLimit:     10,
			RateBurst:     5,
			TimeZone:      "UTC",
			TokenTTL:      50 * time.Minute,
		},
		Sync: SyncConfig{
			DeviceInterval:   10 * time.Minute,
			PositionInterval: 30 * time.Second,
			AlarmInterval:    5 * time.Minute,
			Lookback:         10 * time.Minute,
			BatchSize:        50,
			RetentionDays:    30,
			PurgeInterval:    24 * time.Hour,
			StartupDelay:     5 * time.Second,
			OfflineThreshold: 30 * time.Minute,
		},
		Database: DatabaseConfig{
			Path:      "/data/fleetwatch.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Server: ServerConfig{
			Port:    8080,
			Host:    "0.0.0.0",
			Timeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
		},
		API: APIConfig{
			DefaultLimit: 1000,
			MaxLimit:     10000,
		},
		Events: EventsConfig{
			Enabled:        true,
			Backend:        "gochannel",
			NATSURL:        "nats://127.0.0.1:4222",
			EmbeddedServer: false,
			StoreDir:       "/data/nats",
		},
		Import: ImportConfig{
			Enabled:      false,
			DBPath:       "",
			BatchSize:    1000,
			ProgressPath: "",
			DryRun:       false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Built-in defaults (lowest priority)
//  2. Config file (config.yaml)
//  3. Environment variables (highest priority)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Environment variables
	// BRIGADE_API_URL -> brigade.base_url
	// ALARM_LOOKBACK_MINUTES -> sync.lookback
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}
	if err := processBareDurations(k); err != nil {
		return nil, fmt.Errorf("failed to process duration fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// bareDurationUnits maps duration fields to the unit a bare integer is read in.
// Older deployments configure these as plain numbers
// (ALARM_LOOKBACK_MINUTES=10, BRIGADE_API_TIMEOUT=30).
var bareDurationUnits = map[string]time.Duration{
	"brigade.timeout":      time.Second,
	"brigade.retry_delay":  time.Second,
	"sync.device_interval": time.Minute,
	"sync.alarm_interval":  time.Minute,
	"sync.lookback":        time.Minute,
}

// processBareDurations rewrites integer values of known duration fields into
// Go duration strings. Values that already carry a unit are left alone.
func processBareDurations(k *koanf.Koanf) error {
	for path, unit := range bareDurationUnits {
		var n int
		switch v := k.Get(path).(type) {
		case string:
			parsed, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				continue
			}
			n = parsed
		case int:
			n = v
		case int64:
			n = int(v)
		case float64:
			n = int(v)
		default:
			continue
		}
		if err := k.Set(path, (time.Duration(n) * unit).String()); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Older variable names are kept as aliases.
var envMappings = map[string]string{
	// Vendor API
	"brigade_api_url":        "brigade.base_url",
	"brigade_base_url":       "brigade.base_url",
	"brigade_username":       "brigade.username",
	"brigade_password":       "brigade.password",
	"brigade_api_timeout":    "brigade.timeout",
	"brigade_timeout":        "brigade.timeout",
	"brigade_retry_attempts": "brigade.retry_attempts",
	"brigade_retry_delay":    "brigade.retry_delay",
	"brigade_rate_limit":     "brigade.rate_limit",
	"brigade_rate_burst":     "brigade.rate_burst",
	"brigade_time_zone":      "brigade.time_zone",
	"brigade_token_ttl":      "brigade.token_ttl",

	// Schedulers
	"update_interval_minutes":       "sync.device_interval",
	"sync_device_interval":          "sync.device_interval",
	"sync_position_interval":        "sync.position_interval",
	"alarm_update_interval_minutes": "sync.alarm_interval",
	"sync_alarm_interval":           "sync.alarm_interval",
	"alarm_lookback_minutes":        "sync.lookback",
	"sync_lookback":                 "sync.lookback",
	"alarm_batch_size":              "sync.batch_size",
	"sync_batch_size":               "sync.batch_size",
	"alarm_cleanup_days":            "sync.retention_days",
	"sync_retention_days":           "sync.retention_days",
	"sync_purge_interval":           "sync.purge_interval",
	"sync_startup_delay":            "sync.startup_delay",
	"sync_offline_threshold":        "sync.offline_threshold",

	// Database
	"database_path":     "database.path",
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// Server
	"http_port":      "server.port",
	"http_host":      "server.host",
	"server_timeout": "server.timeout",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// API
	"api_default_limit": "api.default_limit",
	"api_max_limit":     "api.max_limit",

	// Events
	"events_enabled": "events.enabled",
	"events_backend": "events.backend",
	"nats_url":       "events.nats_url",
	"nats_embedded":  "events.embedded_server",
	"nats_store_dir": "events.store_dir",

	// Legacy import
	"import_enabled":       "import.enabled",
	"import_db_path":       "import.db_path",
	"import_batch_size":    "import.batch_size",
	"import_progress_path": "import.progress_path",
	"import_dry_run":       "import.dry_run",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// Unmapped keys are skipped so random environment variables do not pollute config
	return ""
}
