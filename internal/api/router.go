// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

// Package api provides the HTTP surface: Chi routing, request decoding,
// domain error mapping, and per-IP rate limiting.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/squadforge/internal/config"
)

// NewRouter builds the full route tree.
//
// Rate limiting and request metrics wrap the /api/v1 tree only; /metrics
// stays outside both so scrapes are never throttled and never count
// themselves.
func NewRouter(h *Handlers, cfg config.APIConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(NewRateLimiter(cfg).Middleware)
		r.Use(RequestMetrics)
		r.Use(MaxBodyBytes(cfg.MaxBodyBytes))

		r.Get("/health", h.Health)

		r.Route("/ai", func(r chi.Router) {
			r.Post("/recommend-team", h.RecommendTeam)
			r.Post("/train", h.Train)
			r.Get("/models/status", h.ModelsStatus)
			r.Post("/predict-performance", h.PredictPerformance)
			r.Post("/analyze-player", h.AnalyzePlayer)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
