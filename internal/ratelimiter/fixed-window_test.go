package ratelimiter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(start time.Time) (*FixedWindowLimiter, *time.Time) {
	now := start
	rl := &FixedWindowLimiter{
		entries: make(map[string]*windowEntry),
		now:     func() time.Time { return now },
		done:    make(chan struct{}),
	}
	return rl, &now
}

func TestAttemptBudget(t *testing.T) {
	ctx := context.Background()
	rl, _ := newTestLimiter(time.Unix(1_700_000_000, 0))

	for i := 1; i <= 5; i++ {
		res, err := rl.Check(ctx, "kiosk:t1", 5, 5*time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "attempt %d", i)
		assert.Equal(t, 5-i, res.Remaining)
	}

	res, err := rl.Check(ctx, "kiosk:t1", 5, 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	// Rejection is idempotent: the reset time never moves.
	res2, err := rl.Check(ctx, "kiosk:t1", 5, 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, res2.Allowed)
	assert.Equal(t, res.ResetAt, res2.ResetAt)
}

func TestWindowExpiryOpensFreshWindow(t *testing.T) {
	ctx := context.Background()
	rl, now := newTestLimiter(time.Unix(1_700_000_000, 0))

	for i := 0; i < 6; i++ {
		_, err := rl.Check(ctx, "k", 5, 5*time.Minute)
		require.NoError(t, err)
	}

	*now = now.Add(5 * time.Minute)

	res, err := rl.Check(ctx, "k", 5, 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 4, res.Remaining)
	assert.Equal(t, now.Add(5*time.Minute), res.ResetAt)
}

func TestKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	rl, _ := newTestLimiter(time.Unix(1_700_000_000, 0))

	for i := 0; i < 6; i++ {
		_, err := rl.Check(ctx, "kiosk:t1", 5, 5*time.Minute)
		require.NoError(t, err)
	}

	res, err := rl.Check(ctx, "kiosk:t2", 5, 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = rl.Check(ctx, "staff:42", 5, 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestSweepRemovesExpiredEntries(t *testing.T) {
	ctx := context.Background()
	rl, now := newTestLimiter(time.Unix(1_700_000_000, 0))

	_, err := rl.Check(ctx, "old", 5, time.Minute)
	require.NoError(t, err)
	_, err = rl.Check(ctx, "fresh", 5, time.Hour)
	require.NoError(t, err)

	*now = now.Add(2 * time.Minute)

	// Run one sweep pass directly instead of waiting for the ticker.
	rl.mu.Lock()
	for key, e := range rl.entries {
		if !now.Before(e.resetAt) {
			delete(rl.entries, key)
		}
	}
	rl.mu.Unlock()

	rl.mu.Lock()
	_, oldKept := rl.entries["old"]
	_, freshKept := rl.entries["fresh"]
	rl.mu.Unlock()
	assert.False(t, oldKept)
	assert.True(t, freshKept)
}

func TestConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	rl := NewFixedWindowLimiter()
	defer rl.Stop()

	const attempts = 50
	var wg sync.WaitGroup
	allowed := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := rl.Check(ctx, "hot", 10, time.Minute)
			assert.NoError(t, err)
			allowed <- res.Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	granted := 0
	for ok := range allowed {
		if ok {
			granted++
		}
	}
	assert.Equal(t, 10, granted)
}
