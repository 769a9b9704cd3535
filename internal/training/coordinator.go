// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package training

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/squadforge/internal/config"
	"github.com/tomtom215/squadforge/internal/features"
	"github.com/tomtom215/squadforge/internal/logging"
	"github.com/tomtom215/squadforge/internal/metrics"
	"github.com/tomtom215/squadforge/internal/store"
)

// job is one queued training run.
type job struct {
	kind            ModelKind
	gameID          string
	hyperparameters map[string]float64
}

// Coordinator accepts training submissions and runs them on a single
// background worker. Training and serving are isolated failure
// domains: a failed run logs, records a metric, and leaves the active
// model and its metadata untouched.
type Coordinator struct {
	features  *features.FeatureStore
	artifacts store.ArtifactStore
	store     store.Store
	registry  *Registry
	cfg       config.TrainingConfig
	logger    zerolog.Logger

	mu       sync.Mutex
	inFlight map[ModelKind]bool
	jobs     chan job
}

// NewCoordinator creates a training coordinator. Run must be started
// for submissions to be processed.
func NewCoordinator(fs *features.FeatureStore, artifacts store.ArtifactStore, s store.Store, registry *Registry, cfg config.TrainingConfig) *Coordinator {
	return &Coordinator{
		features:  fs,
		artifacts: artifacts,
		store:     s,
		registry:  registry,
		cfg:       cfg,
		logger:    logging.With().Str("component", "training").Logger(),
		inFlight:  make(map[ModelKind]bool),
		jobs:      make(chan job, cfg.QueueSize),
	}
}

// Submit validates and enqueues a training run, returning immediately.
// A submission for a model name with a run already in flight is
// rejected with ErrTrainingInProgress rather than queued, so training
// per model name is strictly serialized.
func (c *Coordinator) Submit(ctx context.Context, modelName, gameID string, hyperparameters map[string]float64) error {
	if !ValidKind(modelName) {
		return fmt.Errorf("%w: %q", ErrInvalidModelKind, modelName)
	}
	kind := ModelKind(modelName)

	c.mu.Lock()
	if c.inFlight[kind] {
		c.mu.Unlock()
		metrics.TrainingRunsTotal.WithLabelValues(modelName, "rejected").Inc()
		return fmt.Errorf("%w: %s", ErrTrainingInProgress, modelName)
	}
	c.inFlight[kind] = true
	c.mu.Unlock()

	select {
	case c.jobs <- job{kind: kind, gameID: gameID, hyperparameters: hyperparameters}:
		metrics.TrainingQueueDepth.Set(float64(len(c.jobs)))
		c.logger.Info().
			Str("model", modelName).
			Str("game_id", gameID).
			Msg("Training run queued")
		return nil
	default:
		c.clearInFlight(kind)
		metrics.TrainingRunsTotal.WithLabelValues(modelName, "rejected").Inc()
		return fmt.Errorf("%w: queue full", ErrTrainingInProgress)
	}
}

// Run processes queued training jobs until ctx is canceled. Intended
// to run under the supervisor.
func (c *Coordinator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j := <-c.jobs:
			metrics.TrainingQueueDepth.Set(float64(len(c.jobs)))
			c.runJob(ctx, j)
			c.clearInFlight(j.kind)
		}
	}
}

func (c *Coordinator) clearInFlight(kind ModelKind) {
	c.mu.Lock()
	delete(c.inFlight, kind)
	c.mu.Unlock()
}

// runJob executes one training run. The swap is the final step and
// cannot fail, so any earlier failure leaves the previously active
// model and its ModelRecord fully intact.
func (c *Coordinator) runJob(ctx context.Context, j job) {
	start := time.Now()
	err := c.train(ctx, j)
	metrics.RecordTrainingRun(string(j.kind), time.Since(start), err)

	if err != nil {
		c.logger.Error().Err(err).
			Str("model", string(j.kind)).
			Str("game_id", j.gameID).
			Msg("Training run failed, active model unchanged")
		return
	}
	c.logger.Info().
		Str("model", string(j.kind)).
		Str("game_id", j.gameID).
		Dur("duration", time.Since(start)).
		Msg("Training run succeeded")
}

func (c *Coordinator) train(ctx context.Context, j job) error {
	records, err := c.features.ListByGame(ctx, j.gameID)
	if err != nil {
		return fmt.Errorf("bulk read features: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no feature data for game %q", j.gameID)
	}

	matrix := designMatrix(records)
	mean, std := standardize(matrix)

	var model Model
	switch j.kind {
	case KindPlayerClustering, KindTeamRecommender:
		k := defaultClusters
		if v, ok := j.hyperparameters["n_clusters"]; ok && int(v) > 0 {
			k = int(v)
		}
		model = fitKMeans(j.kind, matrix, mean, std, k, c.cfg.MaxIterations, c.cfg.Seed)
	case KindPerformancePredictor:
		model = fitLogistic(j.kind, matrix, performanceLabels(records), mean, std, c.cfg.MaxIterations)
	case KindChurnPredictor:
		model = fitLogistic(j.kind, matrix, churnLabels(records), mean, std, c.cfg.MaxIterations)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidModelKind, j.kind)
	}

	blob, err := EncodeModel(model)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := c.artifacts.Export(ctx, string(j.kind), blob); err != nil {
		return fmt.Errorf("export artifact: %w", err)
	}

	record := ModelRecord{
		Name:            string(j.kind),
		Version:         uuid.NewString(),
		Accuracy:        c.cfg.Accuracy,
		TrainedAt:       time.Now().UTC(),
		Hyperparameters: j.hyperparameters,
	}
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode model record: %w", err)
	}
	if err := c.store.Upsert(ctx, store.TableModelMetadata, record.Name, recordJSON); err != nil {
		return fmt.Errorf("persist model record: %w", err)
	}

	// Swap last: it cannot fail, so readers move to the new model only
	// once artifact and metadata are durable.
	c.registry.Swap(j.kind, &Snapshot{Model: model, Record: record})
	return nil
}
