// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/squadforge/internal/config"
	"github.com/tomtom215/squadforge/internal/logging"
	"github.com/tomtom215/squadforge/internal/training"
)

// TrainingWorker runs queued training jobs until canceled.
type TrainingWorker interface {
	Run(ctx context.Context) error
}

// TrainingSubmitter enqueues training runs.
type TrainingSubmitter interface {
	Submit(ctx context.Context, modelName, gameID string, hyperparameters map[string]float64) error
}

// TrainingWorkerService supervises the coordinator's job loop.
type TrainingWorkerService struct {
	worker TrainingWorker
	name   string
}

// NewTrainingWorkerService wraps the training worker for supervision.
func NewTrainingWorkerService(worker TrainingWorker) *TrainingWorkerService {
	return &TrainingWorkerService{worker: worker, name: "training-worker"}
}

// Serve implements suture.Service.
func (s *TrainingWorkerService) Serve(ctx context.Context) error {
	return s.worker.Run(ctx)
}

// String identifies the service in supervisor logs.
func (s *TrainingWorkerService) String() string {
	return s.name
}

// TrainingSchedulerService submits retraining runs for every registered
// model kind, optionally at startup and then on a fixed interval. A
// rejected submission means a run for that kind is already queued or
// executing, which the scheduler treats as already satisfied.
type TrainingSchedulerService struct {
	submitter TrainingSubmitter
	cfg       config.TrainingConfig
	logger    zerolog.Logger
	name      string
}

// NewTrainingSchedulerService creates the periodic retraining scheduler.
func NewTrainingSchedulerService(submitter TrainingSubmitter, cfg config.TrainingConfig) *TrainingSchedulerService {
	return &TrainingSchedulerService{
		submitter: submitter,
		cfg:       cfg,
		logger:    logging.With().Str("component", "training-scheduler").Logger(),
		name:      "training-scheduler",
	}
}

// Serve implements suture.Service.
//
// An interval of zero disables periodic retraining: the scheduler fires
// the startup submissions if configured, then parks until shutdown.
func (s *TrainingSchedulerService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.cfg.TrainOnStartup).
		Dur("interval", s.cfg.Interval).
		Str("game_id", s.cfg.StartupGameID).
		Msg("Training scheduler starting")

	if s.cfg.TrainOnStartup {
		s.submitAll(ctx)
	}

	if s.cfg.Interval <= 0 {
		s.logger.Info().Msg("Periodic retraining disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.submitAll(ctx)
		}
	}
}

// String identifies the service in supervisor logs.
func (s *TrainingSchedulerService) String() string {
	return s.name
}

func (s *TrainingSchedulerService) submitAll(ctx context.Context) {
	for _, kind := range training.Kinds() {
		err := s.submitter.Submit(ctx, string(kind), s.cfg.StartupGameID, nil)
		switch {
		case err == nil:
		case errors.Is(err, training.ErrTrainingInProgress):
			s.logger.Debug().Str("model", string(kind)).Msg("Scheduled run skipped, already in flight")
		default:
			s.logger.Warn().Err(err).Str("model", string(kind)).Msg("Scheduled training submission failed")
		}
	}
}
