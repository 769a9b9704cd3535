// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package training

import (
	"github.com/tomtom215/squadforge/internal/features"
)

const (
	logisticLearningRate = 0.1
	// winRateThreshold splits the performance target: players above it
	// are the positive class.
	winRateThreshold = 0.5
)

// fitLogistic trains a binary classifier with full-batch gradient
// descent on the standardized matrix.
func fitLogistic(kind ModelKind, matrix [][]float64, labels []float64, mean, std []float64, maxIter int) *LogisticModel {
	weights := make([]float64, numFeatures)
	bias := 0.0
	n := float64(len(matrix))

	for iter := 0; iter < maxIter; iter++ {
		gradW := make([]float64, numFeatures)
		gradB := 0.0
		for i, row := range matrix {
			z := bias
			for j, w := range weights {
				z += w * row[j]
			}
			diff := sigmoid(z) - labels[i]
			for j, v := range row {
				gradW[j] += diff * v
			}
			gradB += diff
		}
		for j := range weights {
			weights[j] -= logisticLearningRate * gradW[j] / n
		}
		bias -= logisticLearningRate * gradB / n
	}

	return &LogisticModel{
		ModelKind: kind,
		Weights:   weights,
		Bias:      bias,
		Mean:      mean,
		Std:       std,
	}
}

// performanceLabels marks players above the win-rate threshold as the
// positive class.
func performanceLabels(records []*features.CandidateRecord) []float64 {
	labels := make([]float64, len(records))
	for i, rec := range records {
		if rec.WinRate > winRateThreshold {
			labels[i] = 1
		}
	}
	return labels
}

// churnLabels marks players with below-average activity as the
// positive (at-risk) class. Activity is proxied by matches played
// relative to this batch.
func churnLabels(records []*features.CandidateRecord) []float64 {
	if len(records) == 0 {
		return nil
	}
	total := 0.0
	for _, rec := range records {
		total += rec.MatchesPlayed
	}
	avg := total / float64(len(records))

	labels := make([]float64, len(records))
	for i, rec := range records {
		if rec.MatchesPlayed < avg {
			labels[i] = 1
		}
	}
	return labels
}
