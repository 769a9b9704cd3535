// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

package api

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/tomtom215/squadforge/internal/config"
	"github.com/tomtom215/squadforge/internal/metrics"
)

const (
	// limiterIdleTTL bounds how long an idle client keeps its limiter
	// before the cleanup sweep drops it.
	limiterIdleTTL = 10 * time.Minute

	limiterCleanupInterval = time.Minute
)

// rateLimiterEntry tracks a per-client limiter and its last use.
type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter applies a token-bucket limit per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*rateLimiterEntry
	rps      rate.Limit
	burst    int
	disabled bool
}

// NewRateLimiter creates a per-IP rate limiter from the API config and
// starts its idle-entry cleanup loop.
func NewRateLimiter(cfg config.APIConfig) *RateLimiter {
	rl := &RateLimiter{
		clients:  make(map[string]*rateLimiterEntry),
		rps:      rate.Limit(cfg.RateLimitRPS),
		burst:    cfg.RateLimitBurst,
		disabled: cfg.RateLimitDisabled,
	}
	if !rl.disabled {
		go rl.cleanupLoop()
	}
	return rl
}

// Allow reports whether a request from ip may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	if rl.disabled {
		return true
	}

	rl.mu.Lock()
	entry, ok := rl.clients[ip]
	if !ok {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[ip] = entry
	}
	entry.lastAccess = time.Now()
	rl.mu.Unlock()

	return entry.limiter.Allow()
}

// Middleware rejects over-limit requests with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			metrics.APIRateLimited.Inc()
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-limiterIdleTTL)
		rl.mu.Lock()
		for ip, entry := range rl.clients {
			if entry.lastAccess.Before(cutoff) {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// clientIP returns the remote address without the port. RealIP runs
// earlier in the chain, so RemoteAddr already reflects X-Forwarded-For
// when present.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RequestMetrics records a counter and duration per request, labeled by
// the matched Chi route pattern rather than the raw path so cardinality
// stays bounded.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		if endpoint == "" {
			endpoint = r.URL.Path
		}
		metrics.RecordAPIRequest(r.Method, endpoint, strconv.Itoa(ww.Status()), time.Since(start))
	})
}

// MaxBodyBytes caps request body size. Oversized bodies surface as
// decode errors in the handlers and map to 400.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
