// Package ratelimit bounds how often a user can open submissions.
package ratelimit

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter allows one submission per user per window. With redis it is
// shared across instances; without it falls back to an in-process map.
// Redis failures degrade open: availability over strictness.
type Limiter struct {
	rdb    *redis.Client
	window time.Duration

	mu    sync.Mutex
	local map[string]time.Time
}

func New(rdb *redis.Client, window time.Duration) *Limiter {
	if window <= 0 {
		window = 30 * time.Second
	}
	return &Limiter{
		rdb:    rdb,
		window: window,
		local:  make(map[string]time.Time),
	}
}

func (l *Limiter) Allow(ctx context.Context, userID string) bool {
	if l.rdb != nil {
		ok, err := l.rdb.SetNX(ctx, "ratelimit:submit:"+userID, 1, l.window).Result()
		if err == nil {
			return ok
		}
		log.Printf("ratelimit: redis unavailable, degrading open: %v", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	last, exists := l.local[userID]
	if exists && time.Since(last) < l.window {
		return false
	}
	l.local[userID] = time.Now()
	return true
}
