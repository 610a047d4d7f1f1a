// Package ratelimit admits or refuses per-user requests with a token bucket.
//
// Each caller owns a bucket of at most Capacity tokens. Whole tokens are
// added for every full RefillInterval that has elapsed since the bucket was
// last looked at; partial progress toward the next token is dropped on
// every check. A request costs one token.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Default tunables: five requests up front, then one per minute.
const (
	DefaultCapacity       = 5
	DefaultRefillInterval = time.Minute
)

// Limiter decides whether a caller may perform a protected action.
type Limiter interface {
	// TryConsume refills the caller's bucket and takes one token if one is
	// available. It never fails; false means the action must be refused.
	TryConsume(callerID string) bool

	// Available reports how many tokens the caller would have now, without
	// consuming or recording anything.
	Available(callerID string) int
}

// Config selects and tunes a limiter backend.
type Config struct {
	// Backend is "memory" (single process) or "redis" (shared).
	Backend        string        `yaml:"backend"`
	Capacity       int           `yaml:"capacity"`
	RefillInterval time.Duration `yaml:"refill_interval"`
	Redis          RedisConfig   `yaml:"redis"`
}

// RedisConfig holds the connection settings for the redis backend.
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	Timeout   time.Duration `yaml:"timeout"`
}

// DefaultConfig returns an in-memory limiter config with default tunables.
func DefaultConfig() Config {
	return Config{
		Backend:        "memory",
		Capacity:       DefaultCapacity,
		RefillInterval: DefaultRefillInterval,
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "quizzler:rl",
			Timeout:   500 * time.Millisecond,
		},
	}
}

// Validate checks the tunables.
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("limiter capacity must be at least 1, got %d", c.Capacity)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("limiter refill interval must be positive, got %s", c.RefillInterval)
	}
	switch c.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("limiter redis backend requires an address")
		}
	default:
		return fmt.Errorf("unknown limiter backend: %q", c.Backend)
	}
	return nil
}

// New builds the limiter selected by cfg. The redis backend is pinged so
// that a misconfigured address fails at startup rather than on first use.
func New(ctx context.Context, cfg Config) (Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "redis":
		return NewRedisLimiter(ctx, cfg)
	default:
		return NewMemoryLimiter(cfg.Capacity, cfg.RefillInterval), nil
	}
}

// bucketShape replaces an unusable capacity or interval with its default.
func bucketShape(capacity int, interval time.Duration) (int, time.Duration) {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if interval <= 0 {
		interval = DefaultRefillInterval
	}
	return capacity, interval
}

// refill applies the whole-interval refill rule to a token count.
func refill(tokens, capacity int, last, now time.Time, interval time.Duration) int {
	if interval <= 0 {
		return capacity
	}
	elapsed := now.Sub(last)
	if elapsed < 0 {
		elapsed = 0
	}
	whole := int64(elapsed / interval)
	if whole >= int64(capacity-tokens) {
		return capacity
	}
	return tokens + int(whole)
}
