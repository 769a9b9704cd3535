// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package features

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/squadforge/internal/logging"
	"github.com/tomtom215/squadforge/internal/metrics"
	"github.com/tomtom215/squadforge/internal/store"
)

// Cold-start synthesis ranges. Unseen players get plausible mid-range
// stats so recommendations work from the first request.
const (
	synthKDAMin        = 0.5
	synthKDAMax        = 3.0
	synthWinRateMin    = 0.3
	synthWinRateMax    = 0.7
	synthMatchesMin    = 10
	synthMatchesMax    = 1000
	synthAvgScoreMin   = 100
	synthAvgScoreMax   = 300
	synthDefaultLocale = "en"
	synthDefaultRegion = "na"
)

var synthDefaultRoles = []string{"duelist", "support"}

// FeatureStore provides typed access to the player_features table.
type FeatureStore struct {
	store  store.Store
	logger zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a FeatureStore. seed controls cold-start synthesis; pass
// 0 for time-based seeding.
func New(s store.Store, seed int64) *FeatureStore {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &FeatureStore{
		store:  s,
		logger: logging.With().Str("component", "features").Logger(),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Key layout within the player_features table: "<game_id>:<player_id>".
func featureKey(gameID, playerID string) string {
	return gameID + ":" + playerID
}

// GetOrCreate returns the stored record for (playerID, gameID),
// synthesizing and persisting a default one if the player has never
// been seen. The synthesized record is durable before it is returned,
// so repeated calls return the same vector.
func (fs *FeatureStore) GetOrCreate(ctx context.Context, playerID, gameID string) (*CandidateRecord, error) {
	raw, err := fs.store.Get(ctx, store.TablePlayerFeatures, featureKey(gameID, playerID))
	if err == nil {
		rec := &CandidateRecord{}
		if uerr := json.Unmarshal(raw, rec); uerr != nil {
			return nil, fmt.Errorf("decode feature record %s/%s: %w", gameID, playerID, uerr)
		}
		return rec, nil
	}
	if !errors.Is(err, store.ErrKeyNotFound) {
		return nil, err
	}

	rec := fs.synthesize(playerID, gameID)
	if err := fs.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	metrics.FeatureVectorsSynthesized.Inc()
	fs.logger.Debug().
		Str("player_id", playerID).
		Str("game_id", gameID).
		Msg("Synthesized feature vector for unseen player")
	return rec, nil
}

// Upsert persists a record, keyed by (GameID, PlayerID), and appends a
// performance sample to the player's series.
func (fs *FeatureStore) Upsert(ctx context.Context, rec *CandidateRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode feature record %s/%s: %w", rec.GameID, rec.PlayerID, err)
	}
	if err := fs.store.Upsert(ctx, store.TablePlayerFeatures, featureKey(rec.GameID, rec.PlayerID), data); err != nil {
		return err
	}
	return fs.appendSample(ctx, rec)
}

// ListCandidates returns up to limit records for gameID, excluding the
// requesting player and anything rejected by the filters. Order is the
// store's key order, stable for a given snapshot.
func (fs *FeatureStore) ListCandidates(ctx context.Context, gameID, excludePlayerID string, f Filters, limit int) ([]*CandidateRecord, error) {
	var out []*CandidateRecord
	err := fs.store.Query(ctx, store.TablePlayerFeatures, gameID+":", 0, func(key string, value []byte) error {
		if limit > 0 && len(out) >= limit {
			return store.ErrStopIteration
		}
		rec := &CandidateRecord{}
		if uerr := json.Unmarshal(value, rec); uerr != nil {
			return fmt.Errorf("decode feature record %s: %w", key, uerr)
		}
		if rec.PlayerID == excludePlayerID {
			return nil
		}
		if !f.Matches(rec) {
			return nil
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByGame returns every record for gameID. Used by the training
// pipeline for bulk reads; no cap.
func (fs *FeatureStore) ListByGame(ctx context.Context, gameID string) ([]*CandidateRecord, error) {
	return fs.ListCandidates(ctx, gameID, "", Filters{}, 0)
}

// synthesize builds a default record for an unseen player.
func (fs *FeatureStore) synthesize(playerID, gameID string) *CandidateRecord {
	fs.rngMu.Lock()
	kda := fs.uniform(synthKDAMin, synthKDAMax)
	winRate := fs.uniform(synthWinRateMin, synthWinRateMax)
	matches := float64(synthMatchesMin + fs.rng.Intn(synthMatchesMax-synthMatchesMin+1))
	avgScore := fs.uniform(synthAvgScoreMin, synthAvgScoreMax)
	freq := fs.uniform(0, 1)
	pos := fs.uniform(0, 1)
	fs.rngMu.Unlock()

	roles := make([]string, len(synthDefaultRoles))
	copy(roles, synthDefaultRoles)

	return &CandidateRecord{
		PlayerFeatureVector: PlayerFeatureVector{
			PlayerID:       playerID,
			GameID:         gameID,
			KDA:            kda,
			WinRate:        winRate,
			MatchesPlayed:  matches,
			AvgScore:       avgScore,
			PreferredRoles: roles,
			Communication: &CommunicationStyle{
				Frequency:  &freq,
				Positivity: &pos,
			},
			UpdatedAt: time.Now().UTC(),
		},
		Username: playerID,
		Locale:   synthDefaultLocale,
		Region:   synthDefaultRegion,
	}
}

// uniform draws from [min, max). Caller holds rngMu.
func (fs *FeatureStore) uniform(min, max float64) float64 {
	return min + fs.rng.Float64()*(max-min)
}
