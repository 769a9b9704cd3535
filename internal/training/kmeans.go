// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package training

import (
	"math"
	"math/rand"
)

// defaultClusters is used when the submission carries no n_clusters
// hyperparameter.
const defaultClusters = 5

// fitKMeans runs Lloyd's algorithm on the standardized matrix with
// k-means++ seeding. k is capped at the number of points; iterations
// are bounded by maxIter. Deterministic for a given seed.
func fitKMeans(kind ModelKind, matrix [][]float64, mean, std []float64, k, maxIter int, seed int64) *KMeansModel {
	if k > len(matrix) {
		k = len(matrix)
	}
	rng := rand.New(rand.NewSource(seed))

	centroids := seedCentroids(matrix, k, rng)
	assignments := make([]int, len(matrix))

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, point := range matrix {
			best := nearestCentroid(point, centroids)
			if best != assignments[i] {
				assignments[i] = best
				changed = true
			}
		}

		// Recompute centroids from assignments.
		counts := make([]int, k)
		next := make([][]float64, k)
		for c := range next {
			next[c] = make([]float64, numFeatures)
		}
		for i, point := range matrix {
			c := assignments[i]
			counts[c]++
			for j, v := range point {
				next[c][j] += v
			}
		}
		for c := range next {
			if counts[c] == 0 {
				// Empty cluster: reseed on a random point.
				copy(next[c], matrix[rng.Intn(len(matrix))])
				continue
			}
			for j := range next[c] {
				next[c][j] /= float64(counts[c])
			}
		}
		centroids = next

		if !changed && iter > 0 {
			break
		}
	}

	return &KMeansModel{
		ModelKind: kind,
		K:         k,
		Centroids: centroids,
		Mean:      mean,
		Std:       std,
	}
}

// seedCentroids picks initial centroids with k-means++: each new seed
// is drawn with probability proportional to its squared distance from
// the nearest existing seed.
func seedCentroids(matrix [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := make([]float64, numFeatures)
	copy(first, matrix[rng.Intn(len(matrix))])
	centroids = append(centroids, first)

	distances := make([]float64, len(matrix))
	for len(centroids) < k {
		total := 0.0
		for i, point := range matrix {
			d := math.Inf(1)
			for _, c := range centroids {
				if dist := squaredDistance(point, c); dist < d {
					d = dist
				}
			}
			distances[i] = d
			total += d
		}

		var chosen int
		if total == 0 {
			chosen = rng.Intn(len(matrix))
		} else {
			target := rng.Float64() * total
			acc := 0.0
			for i, d := range distances {
				acc += d
				if acc >= target {
					chosen = i
					break
				}
			}
		}

		next := make([]float64, numFeatures)
		copy(next, matrix[chosen])
		centroids = append(centroids, next)
	}
	return centroids
}

func nearestCentroid(point []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, c := range centroids {
		if d := squaredDistance(point, c); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}
