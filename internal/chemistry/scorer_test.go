// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package chemistry

import (
	"math"
	"testing"

	"github.com/tomtom215/squadforge/internal/features"
)

func fptr(v float64) *float64 { return &v }

func vector(kda, winRate, matches, avgScore float64, roles ...string) *features.PlayerFeatureVector {
	return &features.PlayerFeatureVector{
		KDA:            kda,
		WinRate:        winRate,
		MatchesPlayed:  matches,
		AvgScore:       avgScore,
		PreferredRoles: roles,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b [4]float64
		want float64
	}{
		{"identical", [4]float64{1, 2, 3, 4}, [4]float64{1, 2, 3, 4}, 1.0},
		{"scaled", [4]float64{1, 2, 3, 4}, [4]float64{2, 4, 6, 8}, 1.0},
		{"orthogonal", [4]float64{1, 0, 0, 0}, [4]float64{0, 1, 0, 0}, 0.0},
		{"left zero", [4]float64{}, [4]float64{1, 1, 1, 1}, 0.0},
		{"right zero", [4]float64{1, 1, 1, 1}, [4]float64{}, 0.0},
		{"both zero", [4]float64{}, [4]float64{}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); !almostEqual(got, tt.want) {
				t.Errorf("Cosine = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestRoleScore(t *testing.T) {
	tests := []struct {
		name      string
		requested []string
		requester []string
		cand      []string
		want      float64
	}{
		{"full coverage no overlap", []string{"support"}, []string{"duelist"}, []string{"support"}, 1.0},
		{"no coverage full overlap", []string{"support"}, []string{"duelist"}, []string{"duelist"}, 0.0},
		{"empty request", nil, []string{"duelist"}, []string{"support"}, 0.0},
		{"half coverage", []string{"support", "sentinel"}, nil, []string{"support"}, 0.5},
		{"coverage minus penalty", []string{"support"}, []string{"support"}, []string{"support"}, 0.8},
		{"clamped at zero", nil, []string{"a", "b", "c"}, []string{"a", "b", "c"}, 0.0},
		{"empty candidate roles", []string{"support"}, []string{"duelist"}, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoleScore(tt.requested, tt.requester, tt.cand)
			if !almostEqual(got, tt.want) {
				t.Errorf("RoleScore = %f, want %f", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("RoleScore %f outside [0, 1]", got)
			}
		})
	}
}

func TestCommScoreMissingProfiles(t *testing.T) {
	full := &features.CommunicationStyle{Frequency: fptr(0.8), Positivity: fptr(0.6)}

	if got := CommScore(nil, full); !almostEqual(got, 0.5) {
		t.Errorf("absent left profile: got %f, want neutral 0.5", got)
	}
	if got := CommScore(full, nil); !almostEqual(got, 0.5) {
		t.Errorf("absent right profile: got %f, want neutral 0.5", got)
	}
	if got := CommScore(nil, nil); !almostEqual(got, 0.5) {
		t.Errorf("both absent: got %f, want neutral 0.5", got)
	}
}

func TestCommScorePartialFieldsDefault(t *testing.T) {
	// Partial profiles exist, so per-field 0.5 defaults apply rather
	// than the whole-profile neutral prior.
	partial := &features.CommunicationStyle{Frequency: fptr(0.9)}
	other := &features.CommunicationStyle{Frequency: fptr(0.9), Positivity: fptr(0.5)}

	// |0.9-0.9| = 0, |0.5-0.5| = 0 -> 1.0
	if got := CommScore(partial, other); !almostEqual(got, 1.0) {
		t.Errorf("partial profile: got %f, want 1.0", got)
	}
}

func TestCommScoreDistance(t *testing.T) {
	a := &features.CommunicationStyle{Frequency: fptr(1.0), Positivity: fptr(1.0)}
	b := &features.CommunicationStyle{Frequency: fptr(0.0), Positivity: fptr(0.0)}

	if got := CommScore(a, b); !almostEqual(got, 0.0) {
		t.Errorf("maximal distance: got %f, want 0", got)
	}
	if got := CommScore(a, a); !almostEqual(got, 1.0) {
		t.Errorf("identical profiles: got %f, want 1", got)
	}
}

func TestPairwiseScoreBounds(t *testing.T) {
	vectors := []*features.PlayerFeatureVector{
		vector(2.0, 0.6, 100, 200, "duelist"),
		vector(0, 0, 0, 0),
		vector(0.5, 0.3, 10, 100, "support", "sentinel"),
		vector(3.0, 0.7, 1000, 300),
	}
	roleSets := [][]string{nil, {"support"}, {"duelist", "support"}}

	for _, a := range vectors {
		for _, b := range vectors {
			for _, roles := range roleSets {
				got := PairwiseScore(a, b, roles)
				if got < 0 || got > 100 {
					t.Errorf("PairwiseScore(%v, %v, %v) = %f outside [0, 100]", a, b, roles, got)
				}
			}
		}
	}
}

func TestPairwiseScoreIdentityDominance(t *testing.T) {
	// Identity scores at least as high as a dissimilar candidate when
	// the requested roles are disjoint from the requester's roles.
	a := vector(2.0, 0.6, 100, 200, "duelist")
	b := vector(0.5, 0.1, 900, 50, "duelist")
	requested := []string{"support"}

	self := PairwiseScore(a, a, requested)
	other := PairwiseScore(a, b, requested)
	if self < other {
		t.Errorf("identity %f < dissimilar candidate %f", self, other)
	}
}

func TestPairwiseScoreEndToEndFixture(t *testing.T) {
	// Identical stats (similarity 1.0), candidate covers none of the
	// requested roles and fully overlaps the requester, no comm data:
	// 100 * (0.4*1.0 + 0.4*0 + 0.2*0.5) = 50.
	u := vector(2.0, 0.6, 100, 200, "duelist")
	c := vector(2.0, 0.6, 100, 200, "duelist")

	got := PairwiseScore(u, c, []string{"support"})
	if !almostEqual(got, 50.0) {
		t.Errorf("fixture chemistry = %f, want 50", got)
	}
}

func TestTeamChemistryEmpty(t *testing.T) {
	if got := TeamChemistry(nil, nil); got != 0 {
		t.Errorf("empty selection = %f, want 0", got)
	}
}

func TestTeamChemistryDiversityMonotonic(t *testing.T) {
	scores := []float64{60, 60, 60}

	uniform := TeamChemistry(scores, [][]string{{"duelist"}, {"duelist"}, {"duelist"}})
	diverse := TeamChemistry(scores, [][]string{{"duelist"}, {"support"}, {"sentinel"}})

	if diverse <= uniform {
		t.Errorf("diverse team %f should beat uniform team %f at equal mean chemistry", diverse, uniform)
	}
}

func TestTeamChemistryComposition(t *testing.T) {
	// mean 80, fully diverse roles: 0.7*80 + 30*1 = 86.
	got := TeamChemistry([]float64{80, 80}, [][]string{{"duelist"}, {"support"}})
	if !almostEqual(got, 86.0) {
		t.Errorf("got %f, want 86", got)
	}

	// No roles at all: bonus is 0.
	got = TeamChemistry([]float64{80, 80}, [][]string{nil, nil})
	if !almostEqual(got, 56.0) {
		t.Errorf("no-role team = %f, want 56", got)
	}
}

func TestTeamChemistryClamped(t *testing.T) {
	got := TeamChemistry([]float64{100, 100, 100, 100}, [][]string{{"a"}, {"b"}, {"c"}, {"d"}})
	if got > 100 {
		t.Errorf("team chemistry %f exceeds 100", got)
	}
}
