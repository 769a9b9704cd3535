// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tomtom215/squadforge/internal/analysis"
	"github.com/tomtom215/squadforge/internal/features"
	"github.com/tomtom215/squadforge/internal/logging"
	"github.com/tomtom215/squadforge/internal/recommend"
	"github.com/tomtom215/squadforge/internal/training"
)

// Handlers bundles the HTTP handlers with their backing components.
type Handlers struct {
	engine      *recommend.Engine
	coordinator *training.Coordinator
	registry    *training.Registry
	features    *features.FeatureStore
	analyzer    *analysis.Analyzer
	logger      zerolog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(engine *recommend.Engine, coordinator *training.Coordinator, registry *training.Registry, fs *features.FeatureStore, analyzer *analysis.Analyzer) *Handlers {
	return &Handlers{
		engine:      engine,
		coordinator: coordinator,
		registry:    registry,
		features:    fs,
		analyzer:    analyzer,
		logger:      logging.With().Str("component", "api").Logger(),
	}
}

type trainRequest struct {
	ModelName       string             `json:"model_name"`
	GameID          string             `json:"game_id"`
	Hyperparameters map[string]float64 `json:"hyperparameters,omitempty"`
}

type trainResponse struct {
	Status    string `json:"status"`
	ModelName string `json:"model_name"`
}

type modelsStatusResponse struct {
	Models  map[string]bool        `json:"models"`
	Records []training.ModelRecord `json:"records"`
}

type predictRequest struct {
	PlayerID string `json:"player_id"`
	GameID   string `json:"game_id"`
}

type predictResponse struct {
	PlayerID       string  `json:"player_id"`
	GameID         string  `json:"game_id"`
	WinProbability float64 `json:"win_probability"`
	ModelVersion   string  `json:"model_version"`
}

type analyzePlayerRequest struct {
	PlayerID string `json:"player_id"`
	GameID   string `json:"game_id"`
	// TimePeriod is the analysis window in days; 0 means the default.
	TimePeriod int `json:"time_period,omitempty"`
}

type healthResponse struct {
	Status       string          `json:"status"`
	ModelsLoaded map[string]bool `json:"models_loaded"`
}

// RecommendTeam handles POST /api/v1/ai/recommend-team.
func (h *Handlers) RecommendTeam(w http.ResponseWriter, r *http.Request) {
	var req recommend.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == "" || req.GameID == "" {
		writeError(w, http.StatusBadRequest, "user_id and game_id are required")
		return
	}

	result, err := h.engine.RecommendTeam(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).
			Str("user_id", req.UserID).
			Str("game_id", req.GameID).
			Msg("Recommendation failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Train handles POST /api/v1/ai/train. Accepted submissions return 202
// immediately; the run proceeds in the background.
func (h *Handlers) Train(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ModelName == "" || req.GameID == "" {
		writeError(w, http.StatusBadRequest, "model_name and game_id are required")
		return
	}

	if err := h.coordinator.Submit(r.Context(), req.ModelName, req.GameID, req.Hyperparameters); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, trainResponse{
		Status:    "accepted",
		ModelName: req.ModelName,
	})
}

// ModelsStatus handles GET /api/v1/ai/models/status.
func (h *Handlers) ModelsStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, modelsStatusResponse{
		Models:  h.registry.Status(),
		Records: h.registry.Records(),
	})
}

// PredictPerformance handles POST /api/v1/ai/predict-performance. The
// player's stored feature vector (synthesized on first sight) is scored
// with the active performance predictor.
func (h *Handlers) PredictPerformance(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PlayerID == "" || req.GameID == "" {
		writeError(w, http.StatusBadRequest, "player_id and game_id are required")
		return
	}

	rec, err := h.features.GetOrCreate(r.Context(), req.PlayerID, req.GameID)
	if err != nil {
		h.logger.Error().Err(err).
			Str("player_id", req.PlayerID).
			Str("game_id", req.GameID).
			Msg("Feature vector load failed")
		writeDomainError(w, err)
		return
	}

	probability, record, err := h.registry.PredictWinProbability(rec.Numeric())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		PlayerID:       req.PlayerID,
		GameID:         req.GameID,
		WinProbability: probability,
		ModelVersion:   record.Version,
	})
}

// AnalyzePlayer handles POST /api/v1/ai/analyze-player. The player's
// recorded performance series is summarized into insights and coaching
// recommendations; a player with no samples in the window is 404.
func (h *Handlers) AnalyzePlayer(w http.ResponseWriter, r *http.Request) {
	var req analyzePlayerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PlayerID == "" || req.GameID == "" {
		writeError(w, http.StatusBadRequest, "player_id and game_id are required")
		return
	}
	if req.TimePeriod < 0 {
		writeError(w, http.StatusBadRequest, "time_period must be non-negative")
		return
	}

	report, err := h.analyzer.AnalyzePlayer(r.Context(), req.PlayerID, req.GameID, req.TimePeriod)
	if err != nil {
		if !errors.Is(err, analysis.ErrNoData) {
			h.logger.Error().Err(err).
				Str("player_id", req.PlayerID).
				Str("game_id", req.GameID).
				Msg("Player analysis failed")
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Health handles GET /api/v1/health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		ModelsLoaded: h.registry.Status(),
	})
}
