// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

// Package recommend implements the team recommendation engine: a
// read-through cached pipeline from feature vectors through chemistry
// scoring to a ranked team suggestion.
package recommend

import (
	"time"
)

// Request describes one team recommendation request.
type Request struct {
	UserID         string   `json:"user_id"`
	GameID         string   `json:"game_id"`
	PreferredRoles []string `json:"preferred_roles,omitempty"`
	// Language and Region are optional exact-match candidate filters.
	Language string `json:"language,omitempty"`
	Region   string `json:"region,omitempty"`
}

// RecommendedPlayer is one selected teammate with their chemistry
// against the requester.
type RecommendedPlayer struct {
	PlayerID       string   `json:"player_id"`
	Username       string   `json:"username"`
	ChemistryScore float64  `json:"chemistry_score"`
	PreferredRoles []string `json:"preferred_roles"`
}

// Result is a served team recommendation.
//
// Field names are part of the cache contract: results are cached as
// opaque bytes and must round-trip exactly, so recommended_players,
// chemistry_score and confidence are stable.
type Result struct {
	RecommendedPlayers []RecommendedPlayer `json:"recommended_players"`
	ChemistryScore     float64             `json:"chemistry_score"`
	Confidence         float64             `json:"confidence"`
	GeneratedAt        time.Time           `json:"generated_at"`
}
