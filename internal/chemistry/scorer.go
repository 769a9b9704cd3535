// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

// Package chemistry implements compatibility scoring between players.
// All functions are pure and deterministic: no I/O, no clock, no
// randomness, which keeps them trivially testable and safe to call
// concurrently.
package chemistry

import (
	"math"

	"github.com/tomtom215/squadforge/internal/features"
)

// Score composition weights. Chemistry is a weighted blend of stat
// similarity, role fit against the requested composition, and
// communication-style fit.
const (
	similarityWeight = 0.4
	roleWeight       = 0.4
	commWeight       = 0.2

	// roleOverlapPenalty is applied per role shared between requester and
	// candidate: stacking the same roles hurts team composition.
	roleOverlapPenalty = 0.2

	// neutralComm is the prior used when communication data is missing.
	// A missing profile must never be the reason a candidate is excluded.
	neutralComm = 0.5

	// Team chemistry blends mean pairwise chemistry with a role
	// diversity bonus.
	teamMeanWeight    = 0.7
	diversityBonusMax = 30.0
	maxChemistry      = 100.0
)

// Cosine returns the cosine similarity of two numeric stat vectors.
// If either vector is all-zero the similarity is undefined; 0 is
// returned so such players score neutrally rather than erroring.
func Cosine(a, b [4]float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RoleScore measures how well candidate roles fit the requested
// composition: coverage of requested roles, less a penalty for roles
// the candidate shares with the requester. Result is clamped to [0, 1].
// An empty request has zero coverage by definition.
func RoleScore(requested, requesterRoles, candidateRoles []string) float64 {
	coverage := 0.0
	if len(requested) > 0 {
		coverage = float64(intersectCount(requested, candidateRoles)) / float64(len(requested))
	}
	penalty := roleOverlapPenalty * float64(intersectCount(requesterRoles, candidateRoles))
	return clamp(coverage-penalty, 0, 1)
}

// CommScore measures communication-style fit in [0, 1].
//
// Missing-data policy: if either profile is entirely absent the score
// is the neutral prior. If both exist, absent individual fields default
// to 0.5 before the distance is taken. The two tiers are deliberate:
// "never compared" and "compared against a partial profile" are
// different situations.
func CommScore(a, b *features.CommunicationStyle) float64 {
	if a == nil || b == nil {
		return neutralComm
	}
	df := math.Abs(fieldOrDefault(a.Frequency) - fieldOrDefault(b.Frequency))
	dp := math.Abs(fieldOrDefault(a.Positivity) - fieldOrDefault(b.Positivity))
	return 1 - (df+dp)/2
}

// PairwiseScore returns the chemistry between requester a and candidate
// b for the requested role composition, in [0, 100].
func PairwiseScore(a, b *features.PlayerFeatureVector, requestedRoles []string) float64 {
	similarity := Cosine(a.Numeric(), b.Numeric())
	role := RoleScore(requestedRoles, a.PreferredRoles, b.PreferredRoles)
	comm := CommScore(a.Communication, b.Communication)

	score := maxChemistry * (similarityWeight*similarity + roleWeight*role + commWeight*comm)
	return clamp(score, 0, maxChemistry)
}

// TeamChemistry aggregates per-candidate chemistry scores and role sets
// into a team-level score in [0, 100]: 70% mean chemistry plus a bonus
// for role diversity (distinct roles over total role mentions). An
// empty selection scores 0.
func TeamChemistry(scores []float64, roleSets [][]string) float64 {
	if len(scores) == 0 {
		return 0
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))

	distinct := make(map[string]struct{})
	mentions := 0
	for _, roles := range roleSets {
		for _, role := range roles {
			distinct[role] = struct{}{}
			mentions++
		}
	}
	diversity := 0.0
	if mentions > 0 {
		diversity = float64(len(distinct)) / float64(mentions)
	}

	return clamp(teamMeanWeight*mean+diversityBonusMax*diversity, 0, maxChemistry)
}

func intersectCount(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	n := 0
	seen := make(map[string]struct{}, len(b))
	for _, s := range b {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if _, ok := set[s]; ok {
			n++
		}
	}
	return n
}

func fieldOrDefault(f *float64) float64 {
	if f == nil {
		return neutralComm
	}
	return *f
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
