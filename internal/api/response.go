// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/squadforge/internal/analysis"
	"github.com/tomtom215/squadforge/internal/store"
	"github.com/tomtom215/squadforge/internal/training"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes payload with the given status.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // HTTP response write errors are not recoverable
	json.NewEncoder(w).Encode(payload)
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps domain sentinels to HTTP status codes.
//
// Unavailable backends and unloaded models are 503 so clients retry;
// a rejected duplicate training run is 409 so clients back off instead.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, training.ErrInvalidModelKind):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, training.ErrTrainingInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, training.ErrModelNotLoaded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, analysis.ErrNoData):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage backend unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON decodes the request body into dst, returning a client
// message suitable for a 400 response on failure.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid JSON request body")
	}
	return nil
}
