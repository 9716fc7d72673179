package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rate-limit keyspace. Terminal buckets live long enough to smooth a
// checkout-queue rush; IP buckets (the public link page) turn over fast.
const (
	terminalBucketPrefix = "ratelimit:apikey:"
	ipBucketPrefix       = "ratelimit:ip:"
	terminalBucketTTL    = 120 * time.Second
	ipBucketTTL          = 10 * time.Second
)

// RateLimitResult is the outcome of one token-bucket check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Token bucket in Lua so refill and consume happen atomically under
// concurrent terminals sharing one key.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per second
	local burst = tonumber(ARGV[2])     -- bucket capacity
	local now = tonumber(ARGV[3])       -- unix seconds
	local ttl = tonumber(ARGV[4])

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	tokens = math.min(burst, tokens + ((now - last_update) * rate))

	local allowed = 0
	local retry_after = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// CheckAPIRateLimit consumes one token from a terminal key's bucket.
// A zero rate means the unlimited tier; the check always passes.
func (c *Cache) CheckAPIRateLimit(ctx context.Context, keyID string, ratePerMinute, burst int) (*RateLimitResult, error) {
	if ratePerMinute == 0 {
		return &RateLimitResult{
			Allowed:   true,
			Remaining: int64(burst),
			ResetAt:   time.Now().Add(time.Minute),
		}, nil
	}

	return c.consumeToken(ctx,
		terminalBucketPrefix+keyID,
		float64(ratePerMinute)/60.0,
		burst,
		int(terminalBucketTTL.Seconds()),
	)
}

// CheckIPRateLimit consumes one token from a client IP's bucket. The IP
// is anonymized before it becomes a redis key.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	return c.consumeToken(ctx,
		ipBucketPrefix+anonymizeIP(ip),
		float64(ratePerSecond),
		burst,
		int(ipBucketTTL.Seconds()),
	)
}

// consumeToken runs the bucket script. Redis being down must not take
// the terminals with it, so errors fail open.
func (c *Cache) consumeToken(ctx context.Context, key string, rate float64, burst, ttl int) (*RateLimitResult, error) {
	values, err := tokenBucketScript.Run(ctx, c.client,
		[]string{key},
		rate, burst, time.Now().Unix(), ttl,
	).Int64Slice()
	if err != nil {
		return &RateLimitResult{
			Allowed:   true,
			Remaining: int64(burst),
			ResetAt:   time.Now().Add(time.Minute),
		}, nil
	}

	return &RateLimitResult{
		Allowed:    values[0] == 1,
		RetryAfter: time.Duration(values[1]) * time.Second,
		Remaining:  values[2],
		ResetAt:    time.Now().Add(time.Duration(float64(time.Second) / rate)),
	}, nil
}

// anonymizeIP reduces an IP to a truncated sha256 digest: distinct enough
// for bucketing, without storing raw addresses in redis.
func anonymizeIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}
