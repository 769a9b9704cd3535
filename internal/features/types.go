// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

// Package features provides player feature vector storage: typed access
// to the player_features table with cold-start synthesis for players
// the service has never seen.
package features

import (
	"time"
)

// CommunicationStyle describes how a player communicates in matches.
// Both fields are in [0, 1]. Either may be absent when the upstream
// profile did not report it; scoring substitutes neutral defaults.
type CommunicationStyle struct {
	Frequency  *float64 `json:"frequency,omitempty"`
	Positivity *float64 `json:"positivity,omitempty"`
}

// PlayerFeatureVector holds the per-game behavioral profile of a player.
// Identity is the (PlayerID, GameID) pair.
type PlayerFeatureVector struct {
	PlayerID      string  `json:"player_id"`
	GameID        string  `json:"game_id"`
	KDA           float64 `json:"kda"`
	WinRate       float64 `json:"win_rate"`
	MatchesPlayed float64 `json:"matches_played"`
	AvgScore      float64 `json:"avg_score"`
	// PreferredRoles is ordered by preference; order matters for display,
	// not for scoring.
	PreferredRoles []string            `json:"preferred_roles"`
	Communication  *CommunicationStyle `json:"communication_style,omitempty"`
	// ClusterID is assigned by the clustering model; nil until the player
	// has been clustered.
	ClusterID *int      `json:"cluster_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Numeric returns the numeric feature columns used by similarity
// scoring and model training, in fixed order.
func (v *PlayerFeatureVector) Numeric() [4]float64 {
	return [4]float64{v.KDA, v.WinRate, v.MatchesPlayed, v.AvgScore}
}

// CandidateRecord is a feature vector plus the identity snapshot needed
// to present and filter candidates without a second lookup.
type CandidateRecord struct {
	PlayerFeatureVector
	Username string `json:"username"`
	Locale   string `json:"locale"`
	Region   string `json:"region"`
}

// Filters narrows candidate listing. Empty fields match everything;
// set fields require exact equality.
type Filters struct {
	Language string
	Region   string
}

// Matches reports whether the record passes the filters.
func (f Filters) Matches(rec *CandidateRecord) bool {
	if f.Language != "" && rec.Locale != f.Language {
		return false
	}
	if f.Region != "" && rec.Region != f.Region {
		return false
	}
	return true
}
