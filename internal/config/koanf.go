// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/squadforge/config.yaml",
	"/etc/squadforge/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8086,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Path:       "/data/squadforge",
			InMemory:   false,
			SyncWrites: false,
		},
		Cache: CacheConfig{
			TTL:             time.Hour,
			CleanupInterval: 5 * time.Minute,
			MaxEntries:      10000,
		},
		Recommend: RecommendConfig{
			MaxCandidates: 100,
			TeamSize:      4,
			Confidence:    0.85,
		},
		Training: TrainingConfig{
			QueueSize:      16,
			Interval:       24 * time.Hour,
			TrainOnStartup: false,
			StartupGameID:  "default",
			ModelPath:      "/data/models",
			MaxIterations:  100,
			Seed:           42,
			Accuracy:       0.85,
		},
		API: APIConfig{
			RateLimitRPS:      10,
			RateLimitBurst:    20,
			RateLimitDisabled: false,
			MaxBodyBytes:      1 << 20, // 1MB
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence: ENV > File > Defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// HTTP_PORT -> server.port, CACHE_TTL -> cache.ttl, etc.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
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

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
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

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables are skipped so random environment variables do not
// pollute the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_port":             "server.port",
		"http_host":             "server.host",
		"http_timeout":          "server.timeout",
		"http_shutdown_timeout": "server.shutdown_timeout",

		// Database mappings
		"badger_path":        "database.path",
		"badger_in_memory":   "database.in_memory",
		"badger_sync_writes": "database.sync_writes",

		// Cache mappings
		"cache_ttl":              "cache.ttl",
		"cache_cleanup_interval": "cache.cleanup_interval",
		"cache_max_entries":      "cache.max_entries",

		// Recommendation engine mappings
		"recommend_max_candidates": "recommend.max_candidates",
		"recommend_team_size":      "recommend.team_size",
		"recommend_confidence":     "recommend.confidence",

		// Training pipeline mappings
		"training_queue_size":      "training.queue_size",
		"training_interval":        "training.interval",
		"training_on_startup":      "training.train_on_startup",
		"training_startup_game_id": "training.startup_game_id",
		"training_max_iterations":  "training.max_iterations",
		"training_seed":            "training.seed",
		"training_accuracy":        "training.accuracy",
		"model_path":               "training.model_path",

		// API mappings
		"rate_limit_rps":     "api.rate_limit_rps",
		"rate_limit_burst":   "api.rate_limit_burst",
		"disable_rate_limit": "api.rate_limit_disabled",
		"max_body_bytes":     "api.max_body_bytes",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}
