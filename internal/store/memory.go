// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// MemoryStore implements Store with an in-process map. Used by tests
// and by fault-injecting stubs built on top of it.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]map[string][]byte)}
}

// Get returns the value for key, or ErrKeyNotFound.
func (s *MemoryStore) Get(ctx context.Context, table, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.tables[table][key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Upsert writes value under key, replacing any existing value.
func (s *MemoryStore) Upsert(ctx context.Context, table, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tables[table] == nil {
		s.tables[table] = make(map[string][]byte)
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.tables[table][key] = stored
	return nil
}

// Query iterates keys with the given prefix in lexicographic order.
func (s *MemoryStore) Query(ctx context.Context, table, prefix string, limit int, fn func(key string, value []byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	keys := make([]string, 0, len(s.tables[table]))
	for key := range s.tables[table] {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	snapshot := make(map[string][]byte, len(keys))
	for _, key := range keys {
		snapshot[key] = s.tables[table][key]
	}
	s.mu.RUnlock()

	visited := 0
	for _, key := range keys {
		if limit > 0 && visited >= limit {
			return nil
		}
		if err := fn(key, snapshot[key]); err != nil {
			if errors.Is(err, ErrStopIteration) {
				return nil
			}
			return err
		}
		visited++
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of entries in a table. Test helper.
func (s *MemoryStore) Len(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[table])
}
