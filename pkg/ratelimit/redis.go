package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyGrace keeps the key around a little past its expiry so a slow
// ClearIfExpired still observes it.
const keyGrace = time.Minute

var clearIfExpiredScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
  return -1
end
if tonumber(ARGV[1]) > tonumber(v) then
  redis.call("DEL", KEYS[1])
  return 1
end
return 0
`)

// RedisThrottle stores the throttle expiry in Redis so several watchers
// sharing one Reddit identity pause and resume together.
type RedisThrottle struct {
	client   redis.UniversalClient
	prefix   string
	fallback time.Duration
}

// NewRedisThrottle constructs a RedisThrottle.
func NewRedisThrottle(client redis.UniversalClient, prefix string, fallback time.Duration) *RedisThrottle {
	if fallback <= 0 {
		fallback = DefaultFallback
	}
	return &RedisThrottle{
		client:   client,
		prefix:   strings.TrimSpace(prefix),
		fallback: fallback,
	}
}

func (r *RedisThrottle) key() string {
	if r.prefix == "" {
		return "throttle"
	}
	return r.prefix + ":throttle"
}

func (r *RedisThrottle) Current(ctx context.Context) (State, error) {
	v, err := r.client.Get(ctx, r.key()).Result()
	if errors.Is(err, redis.Nil) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("read throttle state: %w", err)
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return State{}, fmt.Errorf("corrupt throttle state %q: %w", v, err)
	}
	return State{Throttled: true, ExpiresAt: time.UnixMilli(ms)}, nil
}

func (r *RedisThrottle) RecordThrottled(ctx context.Context, now time.Time, retryAfter time.Duration, hinted bool) (State, error) {
	expires := expiryFor(now, retryAfter, hinted, r.fallback)
	ttl := expires.Sub(now) + keyGrace
	if err := r.client.Set(ctx, r.key(), strconv.FormatInt(expires.UnixMilli(), 10), ttl).Err(); err != nil {
		return State{}, fmt.Errorf("record throttle state: %w", err)
	}
	return State{Throttled: true, ExpiresAt: time.UnixMilli(expires.UnixMilli())}, nil
}

func (r *RedisThrottle) ClearIfExpired(ctx context.Context, now time.Time) (bool, error) {
	res, err := clearIfExpiredScript.Run(ctx, r.client, []string{r.key()}, now.UnixMilli()).Int64()
	if err != nil {
		return false, fmt.Errorf("clear throttle state: %w", err)
	}
	return res == 1, nil
}
