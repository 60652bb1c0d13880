package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript refills the bucket for the elapsed time, then tries to take one
// token. It returns {allowed, tokens_left}.
var takeScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])
	local take = tonumber(ARGV[5])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
		last_refill = now
	end

	if take == 0 then
		return {0, tokens}
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return {allowed, tokens}
`)

// TokenBucket is a per-principal, per-action limiter shared by every API
// replica through Redis.
type TokenBucket struct {
	redis    *redis.Client
	capacity int64
	refill   int64 // tokens added per window
	window   time.Duration
	now      func() time.Time
}

func NewTokenBucket(client *redis.Client, capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		redis:    client,
		capacity: capacity,
		refill:   refillRate,
		window:   time.Minute,
		now:      time.Now,
	}
}

func (tb *TokenBucket) Capacity() int64 { return tb.capacity }

func (tb *TokenBucket) Window() time.Duration { return tb.window }

// Allow takes a token for the action and reports whether the call may
// proceed, together with the tokens left afterwards.
func (tb *TokenBucket) Allow(ctx context.Context, principal, action string) (bool, int64, error) {
	allowed, remaining, err := tb.run(ctx, principal, action, 1)
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}
	return allowed, remaining, nil
}

func (tb *TokenBucket) Remaining(ctx context.Context, principal, action string) (int64, error) {
	_, remaining, err := tb.run(ctx, principal, action, 0)
	if err != nil {
		return 0, fmt.Errorf("read remaining tokens: %w", err)
	}
	return remaining, nil
}

func (tb *TokenBucket) Reset(ctx context.Context, principal, action string) error {
	return tb.redis.Del(ctx, key(principal, action)).Err()
}

func (tb *TokenBucket) run(ctx context.Context, principal, action string, take int) (bool, int64, error) {
	result, err := takeScript.Run(ctx, tb.redis, []string{key(principal, action)},
		tb.capacity, tb.refill, int64(tb.window.Seconds()), tb.now().Unix(), take).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(result) != 2 {
		return false, 0, fmt.Errorf("unexpected rate limit reply %v", result)
	}
	return result[0] == 1, result[1], nil
}

func key(principal, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", principal, action)
}
