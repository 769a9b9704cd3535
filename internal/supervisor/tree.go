// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

// Package supervisor builds the suture supervision tree that keeps the
// HTTP server and the training worker running for the process lifetime.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor restart and shutdown parameters.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay, in seconds.
	FailureDecay float64

	// FailureBackoff is how long to wait once the threshold is exceeded.
	FailureBackoff time.Duration

	// ShutdownTimeout bounds graceful shutdown of each service.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig matches suture's built-in defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree is a two-layer supervision tree. The serving and training layers
// are separate child supervisors, so a crashing training run cannot take
// the HTTP server down with it.
type Tree struct {
	root     *suture.Supervisor
	serving  *suture.Supervisor
	training *suture.Supervisor
}

// NewTree creates the supervision tree. Supervisor events are logged
// through the slog bridge.
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5.0
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30.0
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	// The sutureslog API is (&Handler{Logger: logger}).MustHook();
	// MustHook has a pointer receiver.
	handler := &sutureslog.Handler{Logger: logger}

	rootSpec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("squadforge", rootSpec)
	serving := suture.New("serving-layer", childSpec)
	training := suture.New("training-layer", childSpec)

	root.Add(serving)
	root.Add(training)

	return &Tree{root: root, serving: serving, training: training}
}

// AddServingService adds a service to the serving layer.
func (t *Tree) AddServingService(svc suture.Service) {
	t.serving.Add(svc)
}

// AddTrainingService adds a service to the training layer.
func (t *Tree) AddTrainingService(svc suture.Service) {
	t.training.Add(svc)
}

// Serve runs the tree until ctx is canceled, then shuts down every
// service and returns.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}
