// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

// Package store provides the persistence layer for Squadforge: a keyed
// byte store backed by BadgerDB (with an in-memory implementation for
// tests), an append-only recommendation history log, and a model
// artifact store with a circuit-breaker decorator.
package store

import (
	"context"
	"errors"
)

// Sentinel errors returned by store implementations.
var (
	// ErrStorageUnavailable indicates the backing store could not serve
	// the operation. Callers treat this as a retryable infrastructure
	// failure, not a data error.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrKeyNotFound indicates the requested key does not exist.
	ErrKeyNotFound = errors.New("key not found")
)

// Table names used across the service.
const (
	TablePlayerFeatures = "player_features"
	TableModelMetadata  = "model_metadata"
	TableHistory        = "recommendation_history"
	TablePerformance    = "performance_samples"
)

// Store is a keyed byte store with prefix iteration.
//
// Keys are scoped by table; iteration order within a table is
// lexicographic by key and stable for a given snapshot.
type Store interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(ctx context.Context, table, key string) ([]byte, error)

	// Upsert writes value under key, replacing any existing value.
	Upsert(ctx context.Context, table, key string, value []byte) error

	// Query iterates keys with the given prefix in lexicographic order,
	// invoking fn for each entry until fn returns an error, limit entries
	// have been visited, or the prefix is exhausted. limit <= 0 means
	// unlimited. Returning ErrStopIteration from fn ends the scan cleanly.
	Query(ctx context.Context, table, prefix string, limit int, fn func(key string, value []byte) error) error

	// Close releases underlying resources.
	Close() error
}

// ErrStopIteration ends a Query scan early without error.
var ErrStopIteration = errors.New("stop iteration")

// HistoryLog is an append-only record of served recommendations.
// Appends are best-effort: failures are logged and counted, never
// surfaced to recommendation callers.
type HistoryLog interface {
	Append(ctx context.Context, userID, gameID string, payload []byte) error
}

// ArtifactStore persists serialized model artifacts by name.
type ArtifactStore interface {
	// Export writes the artifact, replacing any previous version atomically.
	Export(ctx context.Context, name string, data []byte) error

	// Import reads the artifact, or returns ErrKeyNotFound.
	Import(ctx context.Context, name string) ([]byte, error)
}
