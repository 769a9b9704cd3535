// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/squadforge/internal/cache"
	"github.com/tomtom215/squadforge/internal/chemistry"
	"github.com/tomtom215/squadforge/internal/config"
	"github.com/tomtom215/squadforge/internal/features"
	"github.com/tomtom215/squadforge/internal/logging"
	"github.com/tomtom215/squadforge/internal/metrics"
	"github.com/tomtom215/squadforge/internal/store"
)

// cacheKeyPrefix matches the historical cache key layout
// "team_rec:<user_id>:<game_id>".
const cacheKeyPrefix = "team_rec:"

// ResultCache is the result cache contract from the engine's point of
// view. Get misses on absent or expired entries; Set may fail when the
// cache backend is unreachable, which degrades the engine to
// recompute-per-request rather than failing requests.
type ResultCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
}

// CacheAdapter adapts the in-process cache to ResultCache.
type CacheAdapter struct {
	Inner cache.Cacher
}

// Get forwards to the inner cache.
func (a CacheAdapter) Get(key string) ([]byte, bool) {
	return a.Inner.Get(key)
}

// Set forwards to the inner cache. The in-process cache cannot fail.
func (a CacheAdapter) Set(key string, value []byte, ttl time.Duration) error {
	a.Inner.SetWithTTL(key, value, ttl)
	return nil
}

// Engine computes team recommendations through a read-through cache.
//
// Within one freshness window an expensive recommendation is computed
// at most once per (user, game) key: cache hits serve stored bytes, and
// concurrent misses for the same key are collapsed onto a single
// computation via singleflight.
type Engine struct {
	features *features.FeatureStore
	cache    ResultCache
	history  store.HistoryLog
	cfg      config.RecommendConfig
	cacheTTL time.Duration
	logger   zerolog.Logger

	group singleflight.Group
	now   func() time.Time
}

// NewEngine creates a recommendation engine.
func NewEngine(fs *features.FeatureStore, rc ResultCache, history store.HistoryLog, cfg config.RecommendConfig, cacheTTL time.Duration) *Engine {
	return &Engine{
		features: fs,
		cache:    rc,
		history:  history,
		cfg:      cfg,
		cacheTTL: cacheTTL,
		logger:   logging.With().Str("component", "recommend").Logger(),
		now:      time.Now,
	}
}

func cacheKey(userID, gameID string) string {
	return cacheKeyPrefix + userID + ":" + gameID
}

// RecommendTeam returns a team recommendation for the request, serving
// from cache when fresh and computing (once per key) otherwise.
//
// Zero matching candidates is not an error: the result is an empty
// selection with chemistry 0. Store failures surface as
// store.ErrStorageUnavailable.
func (e *Engine) RecommendTeam(ctx context.Context, req Request) (*Result, error) {
	key := cacheKey(req.UserID, req.GameID)

	if data, ok := e.cache.Get(key); ok {
		metrics.RecommendationCacheHits.Inc()
		result := &Result{}
		if err := json.Unmarshal(data, result); err != nil {
			// A corrupt entry falls through to recomputation.
			e.logger.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cache entry")
		} else {
			return result, nil
		}
	}
	metrics.RecommendationCacheMisses.Inc()

	// Concurrent misses for the same key share one computation.
	v, err, _ := e.group.Do(key, func() (interface{}, error) {
		// Another caller may have populated the cache while this one
		// waited on the flight group.
		if data, ok := e.cache.Get(key); ok {
			result := &Result{}
			if uerr := json.Unmarshal(data, result); uerr == nil {
				return result, nil
			}
		}
		return e.compute(ctx, req, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// compute runs the full pipeline: requester vector, candidate scan,
// scoring, selection, cache write, history append.
func (e *Engine) compute(ctx context.Context, req Request, key string) (*Result, error) {
	start := e.now()

	requester, err := e.features.GetOrCreate(ctx, req.UserID, req.GameID)
	if err != nil {
		return nil, fmt.Errorf("load requester vector: %w", err)
	}

	candidates, err := e.features.ListCandidates(ctx, req.GameID, req.UserID, features.Filters{
		Language: req.Language,
		Region:   req.Region,
	}, e.cfg.MaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	metrics.CandidatesEvaluated.Observe(float64(len(candidates)))

	type scored struct {
		rec   *features.CandidateRecord
		score float64
	}
	scoredCandidates := make([]scored, 0, len(candidates))
	for _, cand := range candidates {
		score := chemistry.PairwiseScore(&requester.PlayerFeatureVector, &cand.PlayerFeatureVector, req.PreferredRoles)
		scoredCandidates = append(scoredCandidates, scored{rec: cand, score: score})
	}

	// Descending by chemistry; stable so ties keep candidate scan order.
	sort.SliceStable(scoredCandidates, func(i, j int) bool {
		return scoredCandidates[i].score > scoredCandidates[j].score
	})
	if len(scoredCandidates) > e.cfg.TeamSize {
		scoredCandidates = scoredCandidates[:e.cfg.TeamSize]
	}

	players := make([]RecommendedPlayer, 0, len(scoredCandidates))
	scores := make([]float64, 0, len(scoredCandidates))
	roleSets := make([][]string, 0, len(scoredCandidates))
	for _, sc := range scoredCandidates {
		players = append(players, RecommendedPlayer{
			PlayerID:       sc.rec.PlayerID,
			Username:       sc.rec.Username,
			ChemistryScore: sc.score,
			PreferredRoles: sc.rec.PreferredRoles,
		})
		scores = append(scores, sc.score)
		roleSets = append(roleSets, sc.rec.PreferredRoles)
	}

	result := &Result{
		RecommendedPlayers: players,
		ChemistryScore:     chemistry.TeamChemistry(scores, roleSets),
		Confidence:         e.cfg.Confidence,
		GeneratedAt:        e.now().UTC(),
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}

	if err := e.cache.Set(key, data, e.cacheTTL); err != nil {
		metrics.RecommendationCacheWriteFailures.Inc()
		e.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed, result served uncached")
	}

	if err := e.history.Append(ctx, req.UserID, req.GameID, data); err != nil {
		metrics.RecommendationHistoryFailures.Inc()
		e.logger.Warn().Err(err).Str("key", key).Msg("History append failed, result still served")
	}

	metrics.RecommendationDuration.Observe(e.now().Sub(start).Seconds())
	e.logger.Debug().
		Str("user_id", req.UserID).
		Str("game_id", req.GameID).
		Int("candidates", len(candidates)).
		Int("selected", len(players)).
		Float64("team_chemistry", result.ChemistryScore).
		Msg("Recommendation computed")

	return result, nil
}
