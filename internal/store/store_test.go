// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package store

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/squadforge/internal/config"
)

func newTestBadger(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := OpenBadger(config.DatabaseConfig{InMemory: true})
	if err != nil {
		t.Fatalf("open in-memory badger: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testStoreRoundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, TablePlayerFeatures, "g1:p1"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound for missing key, got %v", err)
	}

	if err := s.Upsert(ctx, TablePlayerFeatures, "g1:p1", []byte("v1")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.Get(ctx, TablePlayerFeatures, "g1:p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, []byte("v1")) {
		t.Errorf("got %q, want v1", got)
	}

	// Upsert replaces
	if err := s.Upsert(ctx, TablePlayerFeatures, "g1:p1", []byte("v2")); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, err = s.Get(ctx, TablePlayerFeatures, "g1:p1")
	if err != nil {
		t.Fatalf("get after replace: %v", err)
	}
	if !bytes.Equal(got, []byte("v2")) {
		t.Errorf("got %q, want v2", got)
	}
}

func testStoreQuery(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	entries := map[string]string{
		"g1:alice": "a",
		"g1:bob":   "b",
		"g1:carol": "c",
		"g2:dave":  "d",
	}
	for k, v := range entries {
		if err := s.Upsert(ctx, TablePlayerFeatures, k, []byte(v)); err != nil {
			t.Fatalf("upsert %s: %v", k, err)
		}
	}

	var keys []string
	err := s.Query(ctx, TablePlayerFeatures, "g1:", 0, func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	want := []string{"g1:alice", "g1:bob", "g1:carol"}
	if len(keys) != len(want) {
		t.Fatalf("got %d keys %v, want %v", len(keys), keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key[%d] = %q, want %q (lexicographic order)", i, keys[i], want[i])
		}
	}

	// Limit
	keys = nil
	if err := s.Query(ctx, TablePlayerFeatures, "g1:", 2, func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	}); err != nil {
		t.Fatalf("limited query: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("limit 2: got %d keys", len(keys))
	}

	// Early stop
	keys = nil
	if err := s.Query(ctx, TablePlayerFeatures, "g1:", 0, func(key string, _ []byte) error {
		keys = append(keys, key)
		return ErrStopIteration
	}); err != nil {
		t.Fatalf("stopped query should not error: %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("stop after first: got %d keys", len(keys))
	}

	// Callback errors pass through
	sentinel := errors.New("boom")
	err = s.Query(ctx, TablePlayerFeatures, "g1:", 0, func(string, []byte) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("callback error should pass through, got %v", err)
	}
}

func TestBadgerStore(t *testing.T) {
	s := newTestBadger(t)
	t.Run("round trip", func(t *testing.T) { testStoreRoundTrip(t, s) })
	t.Run("query", func(t *testing.T) { testStoreQuery(t, s) })
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	t.Run("round trip", func(t *testing.T) { testStoreRoundTrip(t, s) })
	t.Run("query", func(t *testing.T) { testStoreQuery(t, s) })
}

func TestHistoryLogAppendOnly(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	h := NewHistoryLog(s)

	for i := 0; i < 3; i++ {
		if err := h.Append(ctx, "u1", "g1", []byte("rec")); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if got := s.Len(TableHistory); got != 3 {
		t.Errorf("history entries = %d, want 3 (appends must never overwrite)", got)
	}
}

func TestFSArtifactStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewFSArtifactStore(t.TempDir())
	if err != nil {
		t.Fatalf("new artifact store: %v", err)
	}

	if _, err := s.Import(ctx, "player_clustering"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("missing artifact: got %v, want ErrKeyNotFound", err)
	}

	if err := s.Export(ctx, "player_clustering", []byte(`{"k":5}`)); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := s.Import(ctx, "player_clustering")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !bytes.Equal(data, []byte(`{"k":5}`)) {
		t.Errorf("round trip mismatch: %q", data)
	}

	// Re-export replaces atomically
	if err := s.Export(ctx, "player_clustering", []byte(`{"k":7}`)); err != nil {
		t.Fatalf("re-export: %v", err)
	}
	data, _ = s.Import(ctx, "player_clustering")
	if !bytes.Equal(data, []byte(`{"k":7}`)) {
		t.Errorf("replacement not visible: %q", data)
	}
}

type failingArtifacts struct {
	calls int
}

func (f *failingArtifacts) Export(context.Context, string, []byte) error {
	f.calls++
	return ErrStorageUnavailable
}

func (f *failingArtifacts) Import(context.Context, string) ([]byte, error) {
	f.calls++
	return nil, ErrStorageUnavailable
}

func TestBreakerArtifactStoreOpensAfterFailures(t *testing.T) {
	ctx := context.Background()
	inner := &failingArtifacts{}
	s := NewBreakerArtifactStore(inner)

	for i := 0; i < 10; i++ {
		_ = s.Export(ctx, "m", nil)
	}

	// Once open, calls must fail fast without reaching the inner store.
	before := inner.calls
	err := s.Export(ctx, "m", nil)
	if err == nil {
		t.Fatal("expected error from open breaker")
	}
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("open breaker should map to ErrStorageUnavailable, got %v", err)
	}
	if inner.calls != before {
		t.Errorf("open breaker should not call inner store (calls %d -> %d)", before, inner.calls)
	}
}

func TestBreakerArtifactStorePassThrough(t *testing.T) {
	ctx := context.Background()
	inner, err := NewFSArtifactStore(t.TempDir())
	if err != nil {
		t.Fatalf("fs store: %v", err)
	}
	s := NewBreakerArtifactStore(inner)

	if err := s.Export(ctx, "m", []byte("data")); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := s.Import(ctx, "m")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !bytes.Equal(data, []byte("data")) {
		t.Errorf("round trip mismatch: %q", data)
	}

	if _, err := s.Import(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("missing artifact through breaker: got %v, want ErrKeyNotFound", err)
	}
}
