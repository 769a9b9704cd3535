// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package features

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/squadforge/internal/store"
)

// PerformanceSample is one point-in-time snapshot of a player's numeric
// performance, recorded whenever the feature vector is written. The
// per-player series feeds the player analysis endpoint.
type PerformanceSample struct {
	PlayerID   string    `json:"player_id"`
	GameID     string    `json:"game_id"`
	KDA        float64   `json:"kda"`
	WinRate    float64   `json:"win_rate"`
	Score      float64   `json:"score"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Key layout within the performance_samples table:
// "<game_id>:<player_id>:<RFC3339Nano>:<uuid>". RFC3339Nano keys in UTC
// sort lexicographically in time order, so a prefix scan over one
// player yields a chronological series; the uuid suffix keeps writes in
// the same nanosecond from colliding.
func sampleKey(s *PerformanceSample) string {
	return fmt.Sprintf("%s:%s:%s:%s",
		s.GameID, s.PlayerID, s.RecordedAt.UTC().Format(time.RFC3339Nano), uuid.NewString())
}

// appendSample records a performance snapshot of rec.
func (fs *FeatureStore) appendSample(ctx context.Context, rec *CandidateRecord) error {
	at := rec.UpdatedAt
	if at.IsZero() {
		at = time.Now()
	}
	sample := &PerformanceSample{
		PlayerID:   rec.PlayerID,
		GameID:     rec.GameID,
		KDA:        rec.KDA,
		WinRate:    rec.WinRate,
		Score:      rec.AvgScore,
		RecordedAt: at.UTC(),
	}

	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("encode performance sample %s/%s: %w", rec.GameID, rec.PlayerID, err)
	}
	return fs.store.Upsert(ctx, store.TablePerformance, sampleKey(sample), data)
}

// ListSamples returns the player's performance series recorded at or
// after since, oldest first.
func (fs *FeatureStore) ListSamples(ctx context.Context, playerID, gameID string, since time.Time) ([]PerformanceSample, error) {
	var out []PerformanceSample
	prefix := gameID + ":" + playerID + ":"
	err := fs.store.Query(ctx, store.TablePerformance, prefix, 0, func(key string, value []byte) error {
		sample := PerformanceSample{}
		if uerr := json.Unmarshal(value, &sample); uerr != nil {
			return fmt.Errorf("decode performance sample %s: %w", key, uerr)
		}
		if sample.RecordedAt.Before(since) {
			return nil
		}
		out = append(out, sample)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
