// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

// Package analysis turns a player's performance series into insights:
// averages, a trend classification, a consistency score, and coaching
// recommendations derived from fixed thresholds.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/squadforge/internal/features"
	"github.com/tomtom215/squadforge/internal/logging"
)

// ErrNoData indicates the player has no performance samples in the
// requested period.
var ErrNoData = errors.New("no performance data")

const (
	// defaultPeriodDays is used when the request carries no period.
	defaultPeriodDays = 30

	// trendSlopeThreshold separates improving/declining from stable on
	// the least-squares slope of the score series.
	trendSlopeThreshold = 0.1

	lowKDAThreshold      = 1.0
	lowWinRateThreshold  = 0.4
	scoreSpreadRatio     = 0.5
	lowConsistencyScore  = 50.0
	lowWinRatePercentage = 45.0
)

// Trend classifications for a score series.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// Insights summarizes one player's performance series.
type Insights struct {
	AverageKDA float64 `json:"average_kda"`
	// WinRate is a percentage in [0, 100].
	WinRate          float64 `json:"win_rate"`
	PerformanceTrend string  `json:"performance_trend"`
	// ConsistencyScore is 100 minus the KDA coefficient of variation in
	// percent; steadier play scores higher.
	ConsistencyScore float64                    `json:"consistency_score"`
	BestPerformance  features.PerformanceSample `json:"best_performance"`
	ImprovementAreas []string                   `json:"improvement_areas"`
}

// Report is the full player analysis payload.
type Report struct {
	PlayerID           string   `json:"player_id"`
	GameID             string   `json:"game_id"`
	AnalysisPeriodDays int      `json:"analysis_period"`
	TotalSamples       int      `json:"total_samples"`
	Insights           Insights `json:"insights"`
	Recommendations    []string `json:"recommendations"`
}

// SampleSource provides a player's performance series.
type SampleSource interface {
	ListSamples(ctx context.Context, playerID, gameID string, since time.Time) ([]features.PerformanceSample, error)
}

// Analyzer computes player analysis reports.
type Analyzer struct {
	samples SampleSource
	logger  zerolog.Logger
	now     func() time.Time
}

// NewAnalyzer creates an analyzer over the given sample source.
func NewAnalyzer(samples SampleSource) *Analyzer {
	return &Analyzer{
		samples: samples,
		logger:  logging.With().Str("component", "analysis").Logger(),
		now:     time.Now,
	}
}

// AnalyzePlayer builds a report over the player's samples from the last
// periodDays days (default 30). ErrNoData when the period is empty.
func (a *Analyzer) AnalyzePlayer(ctx context.Context, playerID, gameID string, periodDays int) (*Report, error) {
	if periodDays <= 0 {
		periodDays = defaultPeriodDays
	}
	since := a.now().UTC().AddDate(0, 0, -periodDays)

	samples, err := a.samples.ListSamples(ctx, playerID, gameID, since)
	if err != nil {
		return nil, fmt.Errorf("list performance samples: %w", err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %s/%s over %d days", ErrNoData, gameID, playerID, periodDays)
	}

	insights := buildInsights(samples)
	report := &Report{
		PlayerID:           playerID,
		GameID:             gameID,
		AnalysisPeriodDays: periodDays,
		TotalSamples:       len(samples),
		Insights:           insights,
		Recommendations:    recommendationsFor(insights),
	}

	a.logger.Debug().
		Str("player_id", playerID).
		Str("game_id", gameID).
		Int("samples", len(samples)).
		Str("trend", insights.PerformanceTrend).
		Msg("Player analysis computed")
	return report, nil
}

func buildInsights(samples []features.PerformanceSample) Insights {
	kdas := make([]float64, len(samples))
	winRates := make([]float64, len(samples))
	scores := make([]float64, len(samples))
	best := samples[0]
	for i, s := range samples {
		kdas[i] = s.KDA
		winRates[i] = s.WinRate
		scores[i] = s.Score
		if s.Score > best.Score {
			best = s
		}
	}

	meanKDA := mean(kdas)
	meanWinRate := mean(winRates)

	consistency := 0.0
	if meanKDA > 0 {
		consistency = 100 - stddev(kdas)/meanKDA*100
	}

	return Insights{
		AverageKDA:       meanKDA,
		WinRate:          meanWinRate * 100,
		PerformanceTrend: TrendOf(scores),
		ConsistencyScore: consistency,
		BestPerformance:  best,
		ImprovementAreas: improvementAreas(meanKDA, meanWinRate, scores),
	}
}

// TrendOf classifies a score series by its least-squares slope. Fewer
// than two points is stable.
func TrendOf(values []float64) string {
	if len(values) < 2 {
		return TrendStable
	}

	n := float64(len(values))
	meanX := (n - 1) / 2
	meanY := mean(values)

	var cov, varX float64
	for i, y := range values {
		dx := float64(i) - meanX
		cov += dx * (y - meanY)
		varX += dx * dx
	}
	slope := cov / varX

	switch {
	case slope > trendSlopeThreshold:
		return TrendImproving
	case slope < -trendSlopeThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func improvementAreas(meanKDA, meanWinRate float64, scores []float64) []string {
	var areas []string
	if meanKDA < lowKDAThreshold {
		areas = append(areas, "Focus on survival and positioning")
	}
	if meanWinRate < lowWinRateThreshold {
		areas = append(areas, "Work on team coordination")
	}
	if meanScore := mean(scores); stddev(scores) > meanScore*scoreSpreadRatio {
		areas = append(areas, "Improve consistency")
	}
	return areas
}

func recommendationsFor(insights Insights) []string {
	var recs []string
	if insights.ConsistencyScore < lowConsistencyScore {
		recs = append(recs, "Practice regularly to improve consistency")
	}
	if insights.PerformanceTrend == TrendDeclining {
		recs = append(recs, "Review recent gameplay and identify mistakes")
	}
	if insights.WinRate < lowWinRatePercentage {
		recs = append(recs, "Focus on team communication and objectives")
	}
	if len(recs) == 0 {
		recs = append(recs, "Keep up the great work!")
	}
	return recs
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
