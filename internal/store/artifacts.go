// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/squadforge/internal/logging"
)

// FSArtifactStore implements ArtifactStore on the local filesystem.
// Exports are atomic: the artifact is written to a temp file and
// renamed into place, so a crash mid-write never corrupts the previous
// version.
type FSArtifactStore struct {
	dir string
}

var _ ArtifactStore = (*FSArtifactStore)(nil)

// NewFSArtifactStore creates an artifact store rooted at dir, creating
// the directory if needed.
func NewFSArtifactStore(dir string) (*FSArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create artifact dir %s: %w", dir, err)
	}
	return &FSArtifactStore{dir: dir}, nil
}

func (s *FSArtifactStore) path(name string) string {
	return filepath.Join(s.dir, name+".model.json")
}

// Export writes the artifact atomically.
func (s *FSArtifactStore) Export(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp artifact: %v", ErrStorageUnavailable, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write artifact %s: %v", ErrStorageUnavailable, name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close artifact %s: %v", ErrStorageUnavailable, name, err)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: publish artifact %s: %v", ErrStorageUnavailable, name, err)
	}
	return nil
}

// Import reads the artifact, or returns ErrKeyNotFound.
func (s *FSArtifactStore) Import(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read artifact %s: %v", ErrStorageUnavailable, name, err)
	}
	return data, nil
}

// BreakerArtifactStore decorates an ArtifactStore with a circuit
// breaker. Useful when the inner store is remote: once exports start
// failing repeatedly, further training runs fail fast instead of
// stalling the worker on a dead backend.
type BreakerArtifactStore struct {
	inner ArtifactStore
	cb    *gobreaker.CircuitBreaker[[]byte]
}

var _ ArtifactStore = (*BreakerArtifactStore)(nil)

// NewBreakerArtifactStore wraps inner with a circuit breaker.
// Opens after 60% failure rate with minimum 5 requests; recovers after
// a 1 minute timeout.
func NewBreakerArtifactStore(inner ArtifactStore) *BreakerArtifactStore {
	logger := logging.With().Str("component", "artifact_breaker").Logger()

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "artifact-store",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")
		},
	})

	return &BreakerArtifactStore{inner: inner, cb: cb}
}

// Export forwards to the inner store under breaker protection.
func (s *BreakerArtifactStore) Export(ctx context.Context, name string, data []byte) error {
	_, err := s.cb.Execute(func() ([]byte, error) {
		return nil, s.inner.Export(ctx, name, data)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: artifact store circuit open: %v", ErrStorageUnavailable, err)
	}
	return err
}

// Import forwards to the inner store under breaker protection.
// ErrKeyNotFound does not count as a backend failure.
func (s *BreakerArtifactStore) Import(ctx context.Context, name string) ([]byte, error) {
	data, err := s.cb.Execute(func() ([]byte, error) {
		data, err := s.inner.Import(ctx, name)
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return data, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: artifact store circuit open: %v", ErrStorageUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrKeyNotFound
	}
	return data, nil
}
