// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/squadforge/internal/config"
	"github.com/tomtom215/squadforge/internal/logging"
	"github.com/tomtom215/squadforge/internal/metrics"
)

// BadgerStore implements Store on an embedded BadgerDB instance.
// Table scoping is implemented as a key prefix "<table>:".
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Compile-time interface check.
var _ Store = (*BadgerStore)(nil)

// OpenBadger opens (or creates) the BadgerDB store described by cfg.
func OpenBadger(cfg config.DatabaseConfig) (*BadgerStore, error) {
	logger := logging.With().Str("component", "store").Logger()

	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(badgerLogger{logger: logger})
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", cfg.Path, err)
	}

	logger.Info().Str("path", cfg.Path).Bool("in_memory", cfg.InMemory).Msg("Store opened")
	return &BadgerStore{db: db, logger: logger}, nil
}

// NewBadgerStore wraps an already-open BadgerDB instance.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{
		db:     db,
		logger: logging.With().Str("component", "store").Logger(),
	}
}

func storeKey(table, key string) []byte {
	return []byte(table + ":" + key)
}

// Get returns the value for key, or ErrKeyNotFound.
func (s *BadgerStore) Get(ctx context.Context, table, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey(table, key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	metrics.RecordStoreOperation("get", table, time.Since(start), ignoreNotFound(err))

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s/%s: %v", ErrStorageUnavailable, table, key, err)
	}
	return value, nil
}

// Upsert writes value under key, replacing any existing value.
func (s *BadgerStore) Upsert(ctx context.Context, table, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storeKey(table, key), value)
	})
	metrics.RecordStoreOperation("upsert", table, time.Since(start), err)

	if err != nil {
		return fmt.Errorf("%w: upsert %s/%s: %v", ErrStorageUnavailable, table, key, err)
	}
	return nil
}

// Query iterates keys with the given prefix in lexicographic order.
func (s *BadgerStore) Query(ctx context.Context, table, prefix string, limit int, fn func(key string, value []byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	fullPrefix := storeKey(table, prefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = fullPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		visited := 0
		for it.Seek(fullPrefix); it.ValidForPrefix(fullPrefix); it.Next() {
			if limit > 0 && visited >= limit {
				return nil
			}
			item := it.Item()
			// Strip the "<table>:" scope so callers see their own keys.
			key := string(item.Key())[len(table)+1:]
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(key, value); err != nil {
				return err
			}
			visited++
		}
		return nil
	})
	metrics.RecordStoreOperation("query", table, time.Since(start), ignoreStop(err))

	if errors.Is(err, ErrStopIteration) {
		return nil
	}
	if errors.Is(err, badger.ErrDBClosed) {
		return fmt.Errorf("%w: query %s/%s: %v", ErrStorageUnavailable, table, prefix, err)
	}
	// Callback errors pass through unwrapped so callers can detect their
	// own sentinel errors.
	return err
}

// Close closes the underlying BadgerDB instance.
func (s *BadgerStore) Close() error {
	s.logger.Info().Msg("Store closing")
	return s.db.Close()
}

// DB exposes the underlying BadgerDB handle for components that share
// the instance (history log).
func (s *BadgerStore) DB() *badger.DB {
	return s.db
}

func ignoreNotFound(err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func ignoreStop(err error) error {
	if errors.Is(err, ErrStopIteration) {
		return nil
	}
	return err
}

// badgerLogger adapts zerolog to badger.Logger.
type badgerLogger struct {
	logger zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}
