// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type countingService struct {
	starts atomic.Int64
	name   string
}

func (s *countingService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTreeServesAndStops(t *testing.T) {
	tree := NewTree(discardLogger(), DefaultTreeConfig())

	serving := &countingService{name: "serving-probe"}
	training := &countingService{name: "training-probe"}
	tree.AddServingService(serving)
	tree.AddTrainingService(training)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tree.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for serving.starts.Load() == 0 || training.starts.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("services not started: serving=%d training=%d",
				serving.starts.Load(), training.starts.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop after cancellation")
	}
}

func TestTreeRestartsFailedService(t *testing.T) {
	cfg := DefaultTreeConfig()
	cfg.FailureBackoff = 10 * time.Millisecond
	tree := NewTree(discardLogger(), cfg)

	flaky := &flakyService{failures: 2}
	tree.AddTrainingService(flaky)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tree.Serve(ctx) //nolint:errcheck // return value observed via service state

	deadline := time.After(2 * time.Second)
	for flaky.starts.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("service restarted %d times, want at least 3 starts", flaky.starts.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

type flakyService struct {
	starts   atomic.Int64
	failures int64
}

func (s *flakyService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	if n <= s.failures {
		return errors.New("transient failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *flakyService) String() string { return "flaky-probe" }
