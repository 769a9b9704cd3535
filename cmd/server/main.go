// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

// Package main is the entry point for the Squadforge server.
//
// Squadforge recommends compatible teammates for multiplayer games and
// trains the player-clustering and prediction models behind those
// recommendations.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered loading from defaults, config file, and
//     environment variables (Koanf v2)
//  2. Storage: BadgerDB for feature vectors, model metadata, and the
//     recommendation history log
//  3. Artifact store: filesystem model artifacts behind a circuit breaker
//  4. Recommendation engine: cached, deduplicated team scoring
//  5. Model registry: warm-started from persisted artifacts
//  6. Training coordinator: background worker with a bounded job queue
//  7. HTTP server: REST API plus Prometheus metrics
//
// All long-running components run under a suture supervision tree; the
// serving and training layers restart independently.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (config.yaml),
// built-in defaults. See internal/config for the full surface.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, drains in-flight requests within the shutdown
// timeout, and closes the database.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/tomtom215/squadforge/internal/analysis"
	"github.com/tomtom215/squadforge/internal/api"
	"github.com/tomtom215/squadforge/internal/cache"
	"github.com/tomtom215/squadforge/internal/config"
	"github.com/tomtom215/squadforge/internal/features"
	"github.com/tomtom215/squadforge/internal/logging"
	"github.com/tomtom215/squadforge/internal/recommend"
	"github.com/tomtom215/squadforge/internal/store"
	"github.com/tomtom215/squadforge/internal/supervisor"
	"github.com/tomtom215/squadforge/internal/supervisor/services"
	"github.com/tomtom215/squadforge/internal/training"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Bool("db_in_memory", cfg.Database.InMemory).
		Str("model_path", cfg.Training.ModelPath).
		Msg("Starting Squadforge")

	db, err := store.OpenBadger(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	fsArtifacts, err := store.NewFSArtifactStore(cfg.Training.ModelPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize artifact store")
	}
	artifacts := store.NewBreakerArtifactStore(fsArtifacts)

	resultCache := cache.New(cfg.Cache.TTL, cfg.Cache.CleanupInterval, cfg.Cache.MaxEntries)
	defer resultCache.Close()

	featureStore := features.New(db, cfg.Training.Seed)
	history := store.NewHistoryLog(db)

	engine := recommend.NewEngine(
		featureStore,
		recommend.CacheAdapter{Inner: resultCache},
		history,
		cfg.Recommend,
		cfg.Cache.TTL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := training.NewRegistry()
	registry.WarmStart(ctx, artifacts, db)

	coordinator := training.NewCoordinator(featureStore, artifacts, db, registry, cfg.Training)
	analyzer := analysis.NewAnalyzer(featureStore)

	router := api.NewRouter(api.NewHandlers(engine, coordinator, registry, featureStore, analyzer), cfg.API)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout

	// The supervisor logs through the zerolog-backed slog bridge.
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.AddServingService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	tree.AddTrainingService(services.NewTrainingWorkerService(coordinator))
	tree.AddTrainingService(services.NewTrainingSchedulerService(coordinator, cfg.Training))

	logging.Info().
		Str("addr", server.Addr).
		Msg("Supervisor tree starting")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
	}

	logging.Info().Msg("Shutdown complete")
}
