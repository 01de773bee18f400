package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"algotracker/internal/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const tokenBucketLua = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

if rate <= 0 or burst <= 0 then
  return {1, 0, burst}
end

local data = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(data[1])
local ts = tonumber(data[2])
if tokens == nil then
  tokens = burst
end
if ts == nil then
  ts = now
end

local delta = math.max(0, now - ts)
local refill = (delta * rate) / 1000.0
tokens = math.min(burst, tokens + refill)

local allowed = tokens >= requested
local wait_ms = 0
if allowed then
  tokens = tokens - requested
else
  wait_ms = math.ceil((requested - tokens) * 1000.0 / rate)
end

redis.call("HMSET", key, "tokens", tokens, "ts", now)
redis.call("PEXPIRE", key, math.ceil((burst / rate) * 1000.0 * 2))

return {allowed and 1 or 0, wait_ms, tokens}
`

// KeyedLimiter is a token bucket per key, shared through redis.
type KeyedLimiter struct {
	rdb    *redis.Client
	prefix string
	rate   float64
	burst  float64
	logger *slog.Logger
	script *redis.Script
	now    func() time.Time
}

// NewKeyedLimiter creates a limiter refilling rate tokens per second up to
// burst for every key. A non-positive rate or burst disables limiting.
func NewKeyedLimiter(rdb *redis.Client, logger *slog.Logger, prefix string, rate float64, burst float64) *KeyedLimiter {
	if prefix == "" {
		prefix = "algotracker:ratelimit:"
	}
	return &KeyedLimiter{
		rdb:    rdb,
		prefix: prefix,
		rate:   rate,
		burst:  burst,
		logger: logger,
		script: redis.NewScript(tokenBucketLua),
		now:    time.Now,
	}
}

// Allow takes one token for key. It never blocks; retryAfter is the wait
// until a token is available when allowed is false.
func (r *KeyedLimiter) Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error) {
	if r == nil || r.rdb == nil || r.rate <= 0 || r.burst <= 0 {
		return true, 0, nil
	}

	now := r.now().UnixMilli()
	res, err := r.script.Run(ctx, r.rdb, []string{r.prefix + key}, r.rate, r.burst, now, 1).Result()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit eval: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) < 2 {
		return false, 0, fmt.Errorf("ratelimit invalid result")
	}

	allowed = toInt64(values[0]) == 1
	if !allowed {
		metrics.RateLimitRejectedTotal.Inc()
		if r.logger != nil {
			r.logger.Debug("rate limited", slog.String("key", key))
		}
	}
	return allowed, time.Duration(toInt64(values[1])) * time.Millisecond, nil
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if t == "" {
			return 0
		}
		if parsed, err := strconv.ParseInt(t, 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}
