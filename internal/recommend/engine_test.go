// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package recommend

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/squadforge/internal/cache"
	"github.com/tomtom215/squadforge/internal/config"
	"github.com/tomtom215/squadforge/internal/features"
	"github.com/tomtom215/squadforge/internal/store"
)

// countingStore wraps a Store and counts Query calls, so tests can
// prove a cached request performs no second candidate scan.
type countingStore struct {
	store.Store
	queries atomic.Int64
}

func (s *countingStore) Query(ctx context.Context, table, prefix string, limit int, fn func(string, []byte) error) error {
	s.queries.Add(1)
	return s.Store.Query(ctx, table, prefix, limit, fn)
}

// failingCache drops writes and always misses.
type failingCache struct {
	setErr error
}

func (f *failingCache) Get(string) ([]byte, bool)               { return nil, false }
func (f *failingCache) Set(string, []byte, time.Duration) error { return f.setErr }

func testConfig() config.RecommendConfig {
	return config.RecommendConfig{MaxCandidates: 100, TeamSize: 4, Confidence: 0.85}
}

func newTestEngine(t *testing.T, backing store.Store) *Engine {
	t.Helper()
	fs := features.New(backing, 1)
	c := cache.New(time.Hour, time.Minute, 0)
	t.Cleanup(c.Close)
	return NewEngine(fs, CacheAdapter{Inner: c}, store.NewHistoryLog(backing), testConfig(), time.Hour)
}

func seedPlayer(t *testing.T, s store.Store, playerID, gameID string, kda, winRate float64, roles ...string) {
	t.Helper()
	fs := features.New(s, 1)
	rec := &features.CandidateRecord{
		PlayerFeatureVector: features.PlayerFeatureVector{
			PlayerID:       playerID,
			GameID:         gameID,
			KDA:            kda,
			WinRate:        winRate,
			MatchesPlayed:  100,
			AvgScore:       200,
			PreferredRoles: roles,
			UpdatedAt:      time.Unix(0, 0).UTC(),
		},
		Username: playerID,
		Locale:   "en",
		Region:   "na",
	}
	if err := fs.Upsert(context.Background(), rec); err != nil {
		t.Fatalf("seed %s: %v", playerID, err)
	}
}

func TestRecommendTeamSelectsTopFourDescending(t *testing.T) {
	ms := store.NewMemoryStore()
	seedPlayer(t, ms, "requester", "g1", 2.0, 0.6, "duelist")
	// Candidates with varying similarity to the requester.
	seedPlayer(t, ms, "best", "g1", 2.0, 0.6, "support")
	seedPlayer(t, ms, "good", "g1", 1.8, 0.55, "support")
	seedPlayer(t, ms, "ok", "g1", 1.0, 0.4, "support")
	seedPlayer(t, ms, "meh", "g1", 0.6, 0.35, "sentinel")
	seedPlayer(t, ms, "extra", "g1", 0.5, 0.3, "sentinel")

	e := newTestEngine(t, ms)
	result, err := e.RecommendTeam(context.Background(), Request{
		UserID: "requester", GameID: "g1", PreferredRoles: []string{"support"},
	})
	if err != nil {
		t.Fatalf("RecommendTeam: %v", err)
	}

	if len(result.RecommendedPlayers) != 4 {
		t.Fatalf("selected %d players, want 4", len(result.RecommendedPlayers))
	}
	for _, p := range result.RecommendedPlayers {
		if p.PlayerID == "requester" {
			t.Error("requester must be excluded from recommendations")
		}
	}
	for i := 1; i < len(result.RecommendedPlayers); i++ {
		if result.RecommendedPlayers[i].ChemistryScore > result.RecommendedPlayers[i-1].ChemistryScore {
			t.Errorf("players not sorted by descending chemistry at %d", i)
		}
	}
	if result.Confidence != 0.85 {
		t.Errorf("confidence = %f, want configured 0.85", result.Confidence)
	}
	if result.ChemistryScore <= 0 || result.ChemistryScore > 100 {
		t.Errorf("team chemistry %f outside (0, 100]", result.ChemistryScore)
	}
}

func TestRecommendTeamEmptyPoolIsNotAnError(t *testing.T) {
	ms := store.NewMemoryStore()
	e := newTestEngine(t, ms)

	result, err := e.RecommendTeam(context.Background(), Request{UserID: "loner", GameID: "g1"})
	if err != nil {
		t.Fatalf("empty pool must not error: %v", err)
	}
	if len(result.RecommendedPlayers) != 0 {
		t.Errorf("expected empty selection, got %d", len(result.RecommendedPlayers))
	}
	if result.ChemistryScore != 0 {
		t.Errorf("empty selection chemistry = %f, want 0", result.ChemistryScore)
	}
}

func TestRecommendTeamIdempotentWithinTTL(t *testing.T) {
	ms := store.NewMemoryStore()
	seedPlayer(t, ms, "u1", "g1", 2.0, 0.6, "duelist")
	seedPlayer(t, ms, "c1", "g1", 1.5, 0.5, "support")
	cs := &countingStore{Store: ms}

	e := newTestEngine(t, cs)
	req := Request{UserID: "u1", GameID: "g1", PreferredRoles: []string{"support"}}
	ctx := context.Background()

	first, err := e.RecommendTeam(ctx, req)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	scansAfterFirst := cs.queries.Load()

	second, err := e.RecommendTeam(ctx, req)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if got := cs.queries.Load(); got != scansAfterFirst {
		t.Errorf("second call performed %d extra candidate scans, want 0", got-scansAfterFirst)
	}

	firstJSON, _ := json.Marshal(first)
	secondJSON, _ := json.Marshal(second)
	if !bytes.Equal(firstJSON, secondJSON) {
		t.Errorf("cached result not byte-identical:\n%s\n%s", firstJSON, secondJSON)
	}
}

func TestRecommendTeamCacheWriteFailureStillServes(t *testing.T) {
	ms := store.NewMemoryStore()
	seedPlayer(t, ms, "u1", "g1", 2.0, 0.6, "duelist")
	seedPlayer(t, ms, "c1", "g1", 1.5, 0.5, "support")

	fs := features.New(ms, 1)
	e := NewEngine(fs, &failingCache{setErr: errors.New("cache down")},
		store.NewHistoryLog(ms), testConfig(), time.Hour)

	result, err := e.RecommendTeam(context.Background(), Request{UserID: "u1", GameID: "g1"})
	if err != nil {
		t.Fatalf("cache write failure must not fail the request: %v", err)
	}
	if len(result.RecommendedPlayers) != 1 {
		t.Errorf("expected 1 recommendation, got %d", len(result.RecommendedPlayers))
	}
}

func TestRecommendTeamAppendsHistory(t *testing.T) {
	ms := store.NewMemoryStore()
	seedPlayer(t, ms, "u1", "g1", 2.0, 0.6, "duelist")
	seedPlayer(t, ms, "c1", "g1", 1.5, 0.5, "support")

	e := newTestEngine(t, ms)
	if _, err := e.RecommendTeam(context.Background(), Request{UserID: "u1", GameID: "g1"}); err != nil {
		t.Fatalf("RecommendTeam: %v", err)
	}

	if got := ms.Len(store.TableHistory); got != 1 {
		t.Errorf("history entries = %d, want 1", got)
	}
}

func TestRecommendTeamLanguageRegionFilters(t *testing.T) {
	ms := store.NewMemoryStore()
	seedPlayer(t, ms, "u1", "g1", 2.0, 0.6, "duelist")
	seedPlayer(t, ms, "en-na", "g1", 1.5, 0.5, "support")

	fs := features.New(ms, 1)
	other := &features.CandidateRecord{
		PlayerFeatureVector: features.PlayerFeatureVector{
			PlayerID: "fr-eu", GameID: "g1", KDA: 1.5, WinRate: 0.5,
			MatchesPlayed: 100, AvgScore: 200, PreferredRoles: []string{"support"},
		},
		Username: "fr-eu", Locale: "fr", Region: "eu",
	}
	if err := fs.Upsert(context.Background(), other); err != nil {
		t.Fatalf("seed: %v", err)
	}

	e := newTestEngine(t, ms)
	result, err := e.RecommendTeam(context.Background(), Request{
		UserID: "u1", GameID: "g1", Language: "fr", Region: "eu",
	})
	if err != nil {
		t.Fatalf("RecommendTeam: %v", err)
	}
	if len(result.RecommendedPlayers) != 1 || result.RecommendedPlayers[0].PlayerID != "fr-eu" {
		t.Errorf("filters not applied: %+v", result.RecommendedPlayers)
	}
}

func TestRecommendTeamConcurrentMissesShareOneComputation(t *testing.T) {
	ms := store.NewMemoryStore()
	seedPlayer(t, ms, "u1", "g1", 2.0, 0.6, "duelist")
	for _, id := range []string{"a", "b", "c"} {
		seedPlayer(t, ms, id, "g1", 1.5, 0.5, "support")
	}
	cs := &countingStore{Store: ms}
	e := newTestEngine(t, cs)

	req := Request{UserID: "u1", GameID: "g1"}
	const goroutines = 16

	var wg sync.WaitGroup
	results := make([]*Result, goroutines)
	errs := make([]error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.RecommendTeam(context.Background(), req)
		}(i)
	}
	wg.Wait()

	for i := 0; i < goroutines; i++ {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: %v", i, errs[i])
		}
		if results[i] == nil || len(results[i].RecommendedPlayers) != 3 {
			t.Errorf("goroutine %d got unexpected result %+v", i, results[i])
		}
	}

	// All concurrent misses should collapse onto very few computations
	// (one per flight; the exact count depends on scheduling but must be
	// far below one scan per caller).
	if scans := cs.queries.Load(); scans > goroutines/2 {
		t.Errorf("%d candidate scans for %d concurrent requests, expected shared computation", scans, goroutines)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	result := &Result{
		RecommendedPlayers: []RecommendedPlayer{
			{PlayerID: "p1", Username: "p1", ChemistryScore: 72.5, PreferredRoles: []string{"duelist"}},
		},
		ChemistryScore: 68.2,
		Confidence:     0.85,
		GeneratedAt:    time.Unix(1700000000, 0).UTC(),
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	c := cache.New(time.Hour, time.Minute, 0)
	defer c.Close()
	c.Set("team_rec:p1:g1", data)

	got, ok := c.Get("team_rec:p1:g1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	decoded := &Result{}
	if err := json.Unmarshal(got, decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	reencoded, _ := json.Marshal(decoded)
	if !bytes.Equal(data, reencoded) {
		t.Errorf("result does not round-trip through the cache:\n%s\n%s", data, reencoded)
	}
}
