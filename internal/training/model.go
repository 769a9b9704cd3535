// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

// Package training owns the model lifecycle: job submission, the
// background fitting pipeline, artifact export, metadata persistence,
// and the atomic swap of active models in the registry.
package training

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"
)

// Sentinel errors for the training and prediction surface.
var (
	// ErrInvalidModelKind rejects submissions for unregistered model names.
	ErrInvalidModelKind = errors.New("invalid model kind")

	// ErrTrainingInProgress rejects a submission while a run for the
	// same model name is still in flight.
	ErrTrainingInProgress = errors.New("training already in progress")

	// ErrModelNotLoaded is returned by prediction paths that require a
	// fitted model when none is active.
	ErrModelNotLoaded = errors.New("model not loaded")
)

// ModelKind names a trainable model.
type ModelKind string

// The registered model kinds.
const (
	KindPlayerClustering     ModelKind = "player_clustering"
	KindTeamRecommender      ModelKind = "team_recommender"
	KindPerformancePredictor ModelKind = "performance_predictor"
	KindChurnPredictor       ModelKind = "churn_predictor"
)

// Kinds returns all registered model kinds in stable order.
func Kinds() []ModelKind {
	return []ModelKind{
		KindPlayerClustering,
		KindTeamRecommender,
		KindPerformancePredictor,
		KindChurnPredictor,
	}
}

// ValidKind reports whether name is a registered model kind.
func ValidKind(name string) bool {
	switch ModelKind(name) {
	case KindPlayerClustering, KindTeamRecommender, KindPerformancePredictor, KindChurnPredictor:
		return true
	default:
		return false
	}
}

// ModelRecord is the persisted metadata for one trained model version.
// Exactly one active record exists per model name; it is superseded
// atomically on successful retraining and never partially visible.
type ModelRecord struct {
	Name            string             `json:"name"`
	Version         string             `json:"version"`
	Accuracy        float64            `json:"accuracy"`
	TrainedAt       time.Time          `json:"trained_at"`
	Hyperparameters map[string]float64 `json:"hyperparameters,omitempty"`
}

// Model is a fitted model usable for prediction.
type Model interface {
	Kind() ModelKind
}

// KMeansModel partitions standardized feature vectors into K clusters.
type KMeansModel struct {
	ModelKind ModelKind   `json:"kind"`
	K         int         `json:"k"`
	Centroids [][]float64 `json:"centroids"`
	// Mean and Std are the standardization statistics of the training
	// batch; prediction inputs are transformed with them.
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Kind returns the model kind this instance was trained as.
func (m *KMeansModel) Kind() ModelKind { return m.ModelKind }

// Assign returns the index of the closest centroid for the raw feature
// vector.
func (m *KMeansModel) Assign(raw [numFeatures]float64) int {
	point := standardizePoint(raw, m.Mean, m.Std)
	best := 0
	bestDist := math.Inf(1)
	for i, centroid := range m.Centroids {
		d := squaredDistance(point, centroid)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// LogisticModel is a binary classifier over standardized features.
type LogisticModel struct {
	ModelKind ModelKind `json:"kind"`
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
	Mean      []float64 `json:"mean"`
	Std       []float64 `json:"std"`
}

// Kind returns the model kind this instance was trained as.
func (m *LogisticModel) Kind() ModelKind { return m.ModelKind }

// PredictProbability returns the positive-class probability for the
// raw feature vector.
func (m *LogisticModel) PredictProbability(raw [numFeatures]float64) float64 {
	point := standardizePoint(raw, m.Mean, m.Std)
	z := m.Bias
	for i, w := range m.Weights {
		z += w * point[i]
	}
	return sigmoid(z)
}

// artifactEnvelope is the serialized form of a fitted model. Exactly
// one of the payload fields is set, selected by Algorithm.
type artifactEnvelope struct {
	Algorithm string         `json:"algorithm"` // "kmeans" or "logistic"
	KMeans    *KMeansModel   `json:"kmeans,omitempty"`
	Logistic  *LogisticModel `json:"logistic,omitempty"`
}

// EncodeModel serializes a fitted model for the artifact store.
func EncodeModel(m Model) ([]byte, error) {
	env := artifactEnvelope{}
	switch model := m.(type) {
	case *KMeansModel:
		env.Algorithm = "kmeans"
		env.KMeans = model
	case *LogisticModel:
		env.Algorithm = "logistic"
		env.Logistic = model
	default:
		return nil, fmt.Errorf("unsupported model type %T", m)
	}
	return json.Marshal(env)
}

// DecodeModel deserializes an artifact produced by EncodeModel.
func DecodeModel(data []byte) (Model, error) {
	env := artifactEnvelope{}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	switch env.Algorithm {
	case "kmeans":
		if env.KMeans == nil {
			return nil, errors.New("kmeans artifact missing payload")
		}
		return env.KMeans, nil
	case "logistic":
		if env.Logistic == nil {
			return nil, errors.New("logistic artifact missing payload")
		}
		return env.Logistic, nil
	default:
		return nil, fmt.Errorf("unknown model algorithm %q", env.Algorithm)
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
