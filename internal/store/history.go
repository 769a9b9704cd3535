// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StoreHistoryLog implements HistoryLog on top of a Store. Entries are
// keyed by timestamp and a random suffix, so the log is append-only:
// nothing ever overwrites an earlier entry.
type StoreHistoryLog struct {
	store Store
	now   func() time.Time
}

var _ HistoryLog = (*StoreHistoryLog)(nil)

// NewHistoryLog creates a history log backed by the given store.
func NewHistoryLog(s Store) *StoreHistoryLog {
	return &StoreHistoryLog{store: s, now: time.Now}
}

// Append records a served recommendation. Keys sort chronologically so
// prefix scans replay the log in serve order.
func (h *StoreHistoryLog) Append(ctx context.Context, userID, gameID string, payload []byte) error {
	ts := h.now().UTC().Format(time.RFC3339Nano)
	key := fmt.Sprintf("%s:%s:%s:%s", ts, userID, gameID, uuid.NewString())
	return h.store.Upsert(ctx, TableHistory, key, payload)
}
