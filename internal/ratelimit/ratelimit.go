// Package ratelimit implements a per-user token bucket on Redis. The bucket
// state lives in a hash and is refilled lazily inside a Lua script so the
// check-and-consume is atomic across service instances.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type TokenBucket struct {
	redis    *redis.Client
	capacity int64
	refill   int64 // tokens added per window
	window   time.Duration
}

func NewTokenBucket(redisClient *redis.Client, capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		redis:    redisClient,
		capacity: capacity,
		refill:   refillRate,
		window:   time.Minute,
	}
}

const bucketScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])
	local consume = tonumber(ARGV[5])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local elapsed = now - last_refill
	local refilled = math.floor((elapsed / window) * refill_rate)
	if refilled > 0 then
		tokens = math.min(capacity, tokens + refilled)
		last_refill = now
	end

	if consume == 1 and tokens > 0 then
		tokens = tokens - 1
		redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
		redis.call('EXPIRE', key, window * 2)
		return {1, tokens}
	elseif consume == 1 then
		redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
		redis.call('EXPIRE', key, window * 2)
		return {0, tokens}
	end

	return {1, tokens}
`

func bucketKey(userID, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", userID, action)
}

func (tb *TokenBucket) eval(ctx context.Context, userID, action string, consume int) (bool, int64, error) {
	result, err := tb.redis.Eval(ctx, bucketScript, []string{bucketKey(userID, action)},
		tb.capacity, tb.refill, int64(tb.window.Seconds()), time.Now().Unix(), consume).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("unexpected result shape from rate limit script")
	}
	allowed, aok := values[0].(int64)
	remaining, rok := values[1].(int64)
	if !aok || !rok {
		return false, 0, fmt.Errorf("unexpected result type from rate limit script")
	}
	return allowed == 1, remaining, nil
}

// Allow consumes one token for the user/action pair and reports whether the
// action may proceed.
func (tb *TokenBucket) Allow(ctx context.Context, userID, action string) (bool, error) {
	allowed, _, err := tb.eval(ctx, userID, action, 1)
	return allowed, err
}

// GetRemaining returns the current token count without consuming.
func (tb *TokenBucket) GetRemaining(ctx context.Context, userID, action string) (int64, error) {
	_, remaining, err := tb.eval(ctx, userID, action, 0)
	return remaining, err
}

// Reset clears the bucket for a user/action pair.
func (tb *TokenBucket) Reset(ctx context.Context, userID, action string) error {
	return tb.redis.Del(ctx, bucketKey(userID, action)).Err()
}
