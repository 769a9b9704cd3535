// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

// Package config provides centralized configuration management for Squadforge.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all settings
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any setting
//
// Config is immutable after Load() and safe for concurrent read access.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from environment
// variables and config files.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Cache     CacheConfig     `koanf:"cache"`
	Recommend RecommendConfig `koanf:"recommend"`
	Training  TrainingConfig  `koanf:"training"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_PORT: Listen port (default: 8086)
//   - HTTP_HOST: Listen host (default: 0.0.0.0)
//   - HTTP_TIMEOUT: Read/write timeout (default: 30s)
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds the embedded BadgerDB settings.
//
// Environment Variables:
//   - BADGER_PATH: Data directory (default: /data/squadforge)
//   - BADGER_IN_MEMORY: Run without disk persistence, for tests (default: false)
type DatabaseConfig struct {
	Path       string `koanf:"path"`
	InMemory   bool   `koanf:"in_memory"`
	SyncWrites bool   `koanf:"sync_writes"`
}

// CacheConfig holds recommendation cache settings.
//
// Environment Variables:
//   - CACHE_TTL: Freshness window for cached recommendations (default: 1h)
//   - CACHE_CLEANUP_INTERVAL: Expired-entry sweep interval (default: 5m)
//   - CACHE_MAX_ENTRIES: Entry cap, 0 = unbounded (default: 10000)
type CacheConfig struct {
	TTL             time.Duration `koanf:"ttl"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	MaxEntries      int           `koanf:"max_entries"`
}

// RecommendConfig holds recommendation engine settings.
//
// Environment Variables:
//   - RECOMMEND_MAX_CANDIDATES: Candidate pool cap per request (default: 100)
//   - RECOMMEND_TEAM_SIZE: Players returned per recommendation (default: 4)
//   - RECOMMEND_CONFIDENCE: Reported model confidence (default: 0.85)
type RecommendConfig struct {
	MaxCandidates int     `koanf:"max_candidates"`
	TeamSize      int     `koanf:"team_size"`
	Confidence    float64 `koanf:"confidence"`
}

// TrainingConfig holds training pipeline settings.
//
// Environment Variables:
//   - TRAINING_QUEUE_SIZE: Pending job buffer (default: 16)
//   - TRAINING_INTERVAL: Periodic clustering retrain interval, 0 disables (default: 24h)
//   - TRAINING_ON_STARTUP: Train clustering once at boot (default: false)
//   - TRAINING_STARTUP_GAME_ID: Game used for startup/periodic training
//   - MODEL_PATH: Artifact directory (default: /data/models)
type TrainingConfig struct {
	QueueSize      int           `koanf:"queue_size"`
	Interval       time.Duration `koanf:"interval"`
	TrainOnStartup bool          `koanf:"train_on_startup"`
	StartupGameID  string        `koanf:"startup_game_id"`
	ModelPath      string        `koanf:"model_path"`
	MaxIterations  int           `koanf:"max_iterations"`
	Seed           int64         `koanf:"seed"`
	// Accuracy is the reported model accuracy recorded on successful runs.
	// Offline evaluation is not part of the pipeline yet, so this is a
	// configured constant rather than a measured value.
	Accuracy float64 `koanf:"accuracy"`
}

// APIConfig holds request handling limits.
//
// Environment Variables:
//   - RATE_LIMIT_RPS: Per-client requests per second (default: 10)
//   - RATE_LIMIT_BURST: Per-client burst (default: 20)
//   - DISABLE_RATE_LIMIT: Turn off rate limiting (default: false)
type APIConfig struct {
	RateLimitRPS      float64 `koanf:"rate_limit_rps"`
	RateLimitBurst    int     `koanf:"rate_limit_burst"`
	RateLimitDisabled bool    `koanf:"rate_limit_disabled"`
	MaxBodyBytes      int64   `koanf:"max_body_bytes"`
}

// LoggingConfig holds log output settings.
//
// Environment Variables:
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: Include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if !c.Database.InMemory && c.Database.Path == "" {
		return fmt.Errorf("database.path is required unless database.in_memory is set")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must be non-negative, got %d", c.Cache.MaxEntries)
	}
	if c.Recommend.MaxCandidates <= 0 {
		return fmt.Errorf("recommend.max_candidates must be positive, got %d", c.Recommend.MaxCandidates)
	}
	if c.Recommend.TeamSize <= 0 {
		return fmt.Errorf("recommend.team_size must be positive, got %d", c.Recommend.TeamSize)
	}
	if c.Recommend.Confidence < 0 || c.Recommend.Confidence > 1 {
		return fmt.Errorf("recommend.confidence must be in [0, 1], got %f", c.Recommend.Confidence)
	}
	if c.Training.QueueSize <= 0 {
		return fmt.Errorf("training.queue_size must be positive, got %d", c.Training.QueueSize)
	}
	if c.Training.Interval < 0 {
		return fmt.Errorf("training.interval must be non-negative, got %v", c.Training.Interval)
	}
	if (c.Training.Interval > 0 || c.Training.TrainOnStartup) && c.Training.StartupGameID == "" {
		return fmt.Errorf("training.startup_game_id is required when periodic or startup training is enabled")
	}
	if c.Training.ModelPath == "" {
		return fmt.Errorf("training.model_path is required")
	}
	if c.Training.MaxIterations <= 0 {
		return fmt.Errorf("training.max_iterations must be positive, got %d", c.Training.MaxIterations)
	}
	if c.Training.Accuracy < 0 || c.Training.Accuracy > 1 {
		return fmt.Errorf("training.accuracy must be in [0, 1], got %f", c.Training.Accuracy)
	}
	if !c.API.RateLimitDisabled {
		if c.API.RateLimitRPS <= 0 {
			return fmt.Errorf("api.rate_limit_rps must be positive, got %f", c.API.RateLimitRPS)
		}
		if c.API.RateLimitBurst <= 0 {
			return fmt.Errorf("api.rate_limit_burst must be positive, got %d", c.API.RateLimitBurst)
		}
	}
	if c.API.MaxBodyBytes <= 0 {
		return fmt.Errorf("api.max_body_bytes must be positive, got %d", c.API.MaxBodyBytes)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
