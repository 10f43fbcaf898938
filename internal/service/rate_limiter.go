package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// rateLimitScript is a Lua script for sliding window rate limiting
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local resetAt = 0
    if #oldest >= 2 then
        resetAt = tonumber(oldest[2]) + window
    else
        resetAt = now + window
    end
    return {0, resetAt}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('EXPIRE', key, window + 10)

local resetAt = now + window
return {1, resetAt}
`)

// RateLimitDecision is the outcome of one limiter check.
type RateLimitDecision struct {
	Allowed bool
	Limit   int
	ResetAt time.Time
}

// RetryAfter is the number of whole seconds until the window frees a slot.
func (d RateLimitDecision) RetryAfter(now time.Time) int {
	secs := int(d.ResetAt.Sub(now).Seconds())
	if secs < 1 {
		return 1
	}
	return secs
}

// RateLimiter is a Redis sliding-window limiter shared by all instances.
type RateLimiter struct {
	client   *redis.Client
	failOpen bool
}

// NewRateLimiter creates a limiter that denies requests when Redis is unreachable.
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// NewFailOpenRateLimiter creates a limiter that admits requests when Redis is
// unreachable. Used for telemetry, where losing events is worse than a burst.
func NewFailOpenRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, failOpen: true}
}

// CheckLimit records one request against key and reports whether it fits in
// limit requests per window.
func (rl *RateLimiter) CheckLimit(
	ctx context.Context,
	key string,
	limit int,
	window time.Duration,
) RateLimitDecision {
	now := time.Now().Unix()
	fullKey := fmt.Sprintf("ratelimit:%s", key)

	result, err := rateLimitScript.Run(
		ctx,
		rl.client,
		[]string{fullKey},
		now,
		int64(window.Seconds()),
		limit,
		fmt.Sprintf("%d-%s", now, uuid.NewString()),
	).Int64Slice()

	if err != nil || len(result) != 2 {
		log.Warn().
			Err(err).
			Str("key", key).
			Bool("failOpen", rl.failOpen).
			Msg("rate limit check failed")
		return RateLimitDecision{
			Allowed: rl.failOpen,
			Limit:   limit,
			ResetAt: time.Now().Add(window),
		}
	}

	return RateLimitDecision{
		Allowed: result[0] == 1,
		Limit:   limit,
		ResetAt: time.Unix(result[1], 0),
	}
}
