package ratelimiter

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLimiter implements the same fixed-window contract on a shared Redis
// counter, so every instance of a horizontally scaled deployment sees the
// same attempt budget. Redis key expiry replaces the in-memory sweep.
type RedisLimiter struct {
	rdb *redis.Client
}

func NewRedisLimiter(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{rdb: rdb}
}

func (rl *RedisLimiter) Check(ctx context.Context, key string, max int, window time.Duration) (Result, error) {
	count, err := rl.rdb.Incr(ctx, key).Result()
	if err != nil {
		return Result{}, err
	}

	if count == 1 {
		// First attempt in this window owns the expiry.
		if err := rl.rdb.Expire(ctx, key, window).Err(); err != nil {
			return Result{}, err
		}
		return Result{Allowed: true, Remaining: max - 1, ResetAt: time.Now().Add(window)}, nil
	}

	ttl, err := rl.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return Result{}, err
	}
	if ttl < 0 {
		// Counter lost its expiry (e.g. the setter crashed between INCR and
		// EXPIRE); re-arm it rather than keeping the key forever.
		ttl = window
		if err := rl.rdb.Expire(ctx, key, window).Err(); err != nil {
			return Result{}, err
		}
	}
	resetAt := time.Now().Add(ttl)

	if count > int64(max) {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Result{Allowed: true, Remaining: max - int(count), ResetAt: resetAt}, nil
}
