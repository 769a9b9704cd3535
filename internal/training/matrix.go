// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package training

import (
	"math"

	"github.com/tomtom215/squadforge/internal/features"
)

// numFeatures is the width of the design matrix: kda, win_rate,
// matches_played, avg_score.
const numFeatures = 4

// designMatrix extracts the numeric feature columns from the records.
func designMatrix(records []*features.CandidateRecord) [][]float64 {
	matrix := make([][]float64, len(records))
	for i, rec := range records {
		numeric := rec.Numeric()
		row := make([]float64, numFeatures)
		copy(row, numeric[:])
		matrix[i] = row
	}
	return matrix
}

// standardize transforms the matrix in place to zero mean and unit
// variance per column, using statistics from this batch only. Columns
// with zero variance are left centered (divisor 1). Returns the batch
// mean and standard deviation for use at prediction time.
func standardize(matrix [][]float64) (mean, std []float64) {
	mean = make([]float64, numFeatures)
	std = make([]float64, numFeatures)
	if len(matrix) == 0 {
		for j := range std {
			std[j] = 1
		}
		return mean, std
	}

	n := float64(len(matrix))
	for _, row := range matrix {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}

	for _, row := range matrix {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] == 0 {
			std[j] = 1
		}
	}

	for _, row := range matrix {
		for j := range row {
			row[j] = (row[j] - mean[j]) / std[j]
		}
	}
	return mean, std
}

// standardizePoint applies stored batch statistics to a single raw
// feature vector.
func standardizePoint(raw [numFeatures]float64, mean, std []float64) []float64 {
	point := make([]float64, numFeatures)
	for j := range point {
		s := std[j]
		if s == 0 {
			s = 1
		}
		point[j] = (raw[j] - mean[j]) / s
	}
	return point
}
