// Package ratelimiter provides a fixed-window attempt counter keyed by an
// arbitrary string. The in-memory implementation is process-local: it is a
// soft brute-force deterrent, not a cryptographic guarantee. A horizontally
// scaled deployment must swap in the Redis-backed Limiter so all instances
// share one counter space.
package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// SweepInterval is how often expired windows are removed from memory. It is
// deliberately independent of any caller's window size.
const SweepInterval = 5 * time.Minute

// Result describes the outcome of a single attempt.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter is the contract shared by all backing stores.
type Limiter interface {
	Check(ctx context.Context, key string, max int, window time.Duration) (Result, error)
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

type FixedWindowLimiter struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	now     func() time.Time
	done    chan struct{}
}

func NewFixedWindowLimiter() *FixedWindowLimiter {
	rl := &FixedWindowLimiter{
		entries: make(map[string]*windowEntry),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Check counts one attempt against key. The first attempt for a key, or the
// first after its window elapsed, opens a fresh window [now, now+window).
// Once the budget is exhausted further calls are rejected without any side
// effect beyond the counter itself.
func (rl *FixedWindowLimiter) Check(_ context.Context, key string, max int, window time.Duration) (Result, error) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &windowEntry{count: 1, resetAt: now.Add(window)}
		rl.entries[key] = e
		return Result{Allowed: true, Remaining: max - 1, ResetAt: e.resetAt}, nil
	}

	e.count++
	if e.count > max {
		return Result{Allowed: false, Remaining: 0, ResetAt: e.resetAt}, nil
	}
	return Result{Allowed: true, Remaining: max - e.count, ResetAt: e.resetAt}, nil
}

func (rl *FixedWindowLimiter) sweep() {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			now := rl.now()
			rl.mu.Lock()
			for key, e := range rl.entries {
				if !now.Before(e.resetAt) {
					delete(rl.entries, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop halts the background sweep.
func (rl *FixedWindowLimiter) Stop() {
	close(rl.done)
}
