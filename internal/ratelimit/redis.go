package ratelimit

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/quizzler/internal/metrics"
)

//go:embed token_bucket.lua
var tokenBucketScript string

// RedisLimiter keeps buckets in Redis so several processes share one budget
// per caller. Idle buckets expire once they would have refilled completely.
// Backend errors refuse the request.
type RedisLimiter struct {
	rdb      *redis.Client
	script   *redis.Script
	capacity int
	interval time.Duration
	prefix   string
	timeout  time.Duration
	now      func() time.Time
}

// NewRedisLimiter connects to the configured Redis and verifies it answers.
func NewRedisLimiter(ctx context.Context, cfg Config) (*RedisLimiter, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	return newRedisLimiter(rdb, cfg), nil
}

func newRedisLimiter(rdb *redis.Client, cfg Config) *RedisLimiter {
	prefix := cfg.Redis.KeyPrefix
	if prefix == "" {
		prefix = "quizzler:rl"
	}
	timeout := cfg.Redis.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	capacity, interval := bucketShape(cfg.Capacity, cfg.RefillInterval)
	return &RedisLimiter{
		rdb:      rdb,
		script:   redis.NewScript(tokenBucketScript),
		capacity: capacity,
		interval: interval,
		prefix:   prefix,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Key returns the Redis key holding callerID's bucket.
func (l *RedisLimiter) Key(callerID string) string {
	return fmt.Sprintf("%s:%s", l.prefix, callerID)
}

func (l *RedisLimiter) TryConsume(callerID string) bool {
	allowed, _, err := l.run(callerID, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: rate limiter unavailable, refusing request: %v\n", err)
		metrics.LimiterErrors.WithLabelValues("redis").Inc()
		metrics.LimiterDecisions.WithLabelValues("redis", "refused").Inc()
		return false
	}
	decision := "refused"
	if allowed {
		decision = "allowed"
	}
	metrics.LimiterDecisions.WithLabelValues("redis", decision).Inc()
	return allowed
}

func (l *RedisLimiter) Available(callerID string) int {
	_, tokens, err := l.run(callerID, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: rate limiter unavailable, reporting no tokens: %v\n", err)
		metrics.LimiterErrors.WithLabelValues("redis").Inc()
		return 0
	}
	return tokens
}

// Close releases the Redis connection pool.
func (l *RedisLimiter) Close() error {
	return l.rdb.Close()
}

func (l *RedisLimiter) run(callerID string, consume bool) (bool, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	flag := 0
	if consume {
		flag = 1
	}
	ttl := int64(l.capacity) * l.interval.Milliseconds()

	res, err := l.script.Run(ctx, l.rdb, []string{l.Key(callerID)},
		l.now().UnixMilli(),
		l.capacity,
		l.interval.Milliseconds(),
		flag,
		ttl,
	).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("token bucket script returned %d values", len(res))
	}
	return res[0] == 1, int(res[1]), nil
}
