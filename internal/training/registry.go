// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package training

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/goccy/go-json"

	"github.com/tomtom215/squadforge/internal/logging"
	"github.com/tomtom215/squadforge/internal/metrics"
	"github.com/tomtom215/squadforge/internal/store"
)

// Snapshot pairs a fitted model with its metadata record. The two are
// swapped into the registry as one unit, so readers never observe a
// model with mismatched metadata.
type Snapshot struct {
	Model  Model
	Record ModelRecord
}

// Registry holds the active model per kind. Each slot is an atomic
// pointer: swaps are single indivisible stores and reads are lock-free.
// Only the training coordinator mutates slots; every other component
// holds read-only access.
type Registry struct {
	slots map[ModelKind]*atomic.Pointer[Snapshot]
}

// NewRegistry creates a registry with an empty slot per registered kind.
func NewRegistry() *Registry {
	slots := make(map[ModelKind]*atomic.Pointer[Snapshot], len(Kinds()))
	for _, kind := range Kinds() {
		slots[kind] = &atomic.Pointer[Snapshot]{}
	}
	return &Registry{slots: slots}
}

// Active returns the current snapshot for kind, or ErrModelNotLoaded.
func (r *Registry) Active(kind ModelKind) (*Snapshot, error) {
	slot, ok := r.slots[kind]
	if !ok {
		return nil, ErrInvalidModelKind
	}
	snap := slot.Load()
	if snap == nil {
		return nil, ErrModelNotLoaded
	}
	return snap, nil
}

// Swap atomically replaces the active snapshot for kind.
func (r *Registry) Swap(kind ModelKind, snap *Snapshot) {
	slot, ok := r.slots[kind]
	if !ok {
		return
	}
	wasEmpty := slot.Load() == nil
	slot.Store(snap)

	metrics.ModelSwapsTotal.WithLabelValues(string(kind)).Inc()
	if wasEmpty {
		metrics.ModelsLoaded.Inc()
	}
}

// Status reports, per model kind, whether a model is loaded.
func (r *Registry) Status() map[string]bool {
	status := make(map[string]bool, len(r.slots))
	for kind, slot := range r.slots {
		status[string(kind)] = slot.Load() != nil
	}
	return status
}

// Records returns the metadata of every loaded model.
func (r *Registry) Records() []ModelRecord {
	records := make([]ModelRecord, 0, len(r.slots))
	for _, kind := range Kinds() {
		if snap := r.slots[kind].Load(); snap != nil {
			records = append(records, snap.Record)
		}
	}
	return records
}

// PredictWinProbability scores a raw feature vector with the active
// performance predictor, or returns ErrModelNotLoaded. The probability
// and the returned record come from one slot read, so the version
// always describes the model that produced the score even when a swap
// races the call.
func (r *Registry) PredictWinProbability(raw [numFeatures]float64) (float64, ModelRecord, error) {
	snap, err := r.Active(KindPerformancePredictor)
	if err != nil {
		return 0, ModelRecord{}, err
	}
	model, ok := snap.Model.(*LogisticModel)
	if !ok {
		return 0, ModelRecord{}, ErrModelNotLoaded
	}
	return model.PredictProbability(raw), snap.Record, nil
}

// WarmStart populates the registry from persisted artifacts and
// metadata at process start. Kinds with no stored artifact stay empty;
// a kind that fails to load is logged and skipped, never fatal.
func (r *Registry) WarmStart(ctx context.Context, artifacts store.ArtifactStore, s store.Store) {
	logger := logging.With().Str("component", "registry").Logger()

	for _, kind := range Kinds() {
		blob, err := artifacts.Import(ctx, string(kind))
		if errors.Is(err, store.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			logger.Warn().Err(err).Str("model", string(kind)).Msg("Artifact import failed during warm start")
			continue
		}

		model, err := DecodeModel(blob)
		if err != nil {
			logger.Warn().Err(err).Str("model", string(kind)).Msg("Artifact decode failed during warm start")
			continue
		}

		record := ModelRecord{Name: string(kind)}
		if raw, err := s.Get(ctx, store.TableModelMetadata, string(kind)); err == nil {
			if uerr := json.Unmarshal(raw, &record); uerr != nil {
				logger.Warn().Err(uerr).Str("model", string(kind)).Msg("Model metadata decode failed, keeping bare record")
			}
		}

		r.Swap(kind, &Snapshot{Model: model, Record: record})
		logger.Info().
			Str("model", string(kind)).
			Str("version", record.Version).
			Msg("Model restored from artifact store")
	}
}
