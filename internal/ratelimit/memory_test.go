package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLimiter returns a limiter on a manual clock and a way to advance it.
func newTestLimiter(capacity int, interval time.Duration) (*MemoryLimiter, func(time.Duration)) {
	l := NewMemoryLimiter(capacity, interval)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, func(d time.Duration) { now = now.Add(d) }
}

func TestMemoryLimiter_FirstRequestCreatesFullBucket(t *testing.T) {
	l, _ := newTestLimiter(5, time.Minute)

	_, ok := l.Bucket("ada")
	require.False(t, ok)

	require.True(t, l.TryConsume("ada"))
	b, ok := l.Bucket("ada")
	require.True(t, ok)
	assert.Equal(t, 4, b.Tokens)
}

func TestMemoryLimiter_CapacityExhausts(t *testing.T) {
	l, _ := newTestLimiter(5, time.Minute)

	for i := range 5 {
		assert.True(t, l.TryConsume("ada"), "call %d", i+1)
	}
	assert.False(t, l.TryConsume("ada"), "sixth call within one interval")

	b, _ := l.Bucket("ada")
	assert.Equal(t, 0, b.Tokens)
}

func TestMemoryLimiter_RefusalDoesNotGoNegative(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	require.True(t, l.TryConsume("ada"))
	for range 10 {
		require.False(t, l.TryConsume("ada"))
	}
	b, _ := l.Bucket("ada")
	assert.Equal(t, 0, b.Tokens)
}

func TestMemoryLimiter_RefillWholeIntervals(t *testing.T) {
	l, advance := newTestLimiter(5, time.Minute)
	for range 5 {
		l.TryConsume("ada")
	}

	advance(2*time.Minute + 30*time.Second)
	assert.Equal(t, 2, l.Available("ada"))
	assert.True(t, l.TryConsume("ada"))

	b, _ := l.Bucket("ada")
	assert.Equal(t, 1, b.Tokens)
}

func TestMemoryLimiter_FractionDiscarded(t *testing.T) {
	l, advance := newTestLimiter(5, time.Minute)
	for range 5 {
		l.TryConsume("ada")
	}

	// 59s then another 59s: neither check sees a full interval since the
	// previous one, so no token is ever granted.
	advance(59 * time.Second)
	assert.False(t, l.TryConsume("ada"))
	advance(59 * time.Second)
	assert.False(t, l.TryConsume("ada"))

	advance(time.Minute)
	assert.True(t, l.TryConsume("ada"))
}

func TestMemoryLimiter_RefillCapped(t *testing.T) {
	l, advance := newTestLimiter(5, time.Minute)
	l.TryConsume("ada")

	advance(24 * time.Hour)
	assert.Equal(t, 5, l.Available("ada"))
	require.True(t, l.TryConsume("ada"))
	b, _ := l.Bucket("ada")
	assert.Equal(t, 4, b.Tokens)
}

func TestMemoryLimiter_RefillMonotonicity(t *testing.T) {
	for start := 0; start <= 5; start++ {
		for k := 0; k <= 7; k++ {
			t.Run(fmt.Sprintf("tokens=%d/k=%d", start, k), func(t *testing.T) {
				l, advance := newTestLimiter(5, time.Minute)
				l.TryConsume("ada")
				l.buckets["ada"].Tokens = start

				advance(time.Duration(k) * time.Minute)
				want := start + min(5-start, k)
				assert.Equal(t, want, l.Available("ada"))
			})
		}
	}
}

func TestMemoryLimiter_ClockGoingBackwards(t *testing.T) {
	l, advance := newTestLimiter(5, time.Minute)
	for range 5 {
		l.TryConsume("ada")
	}
	advance(-10 * time.Minute)
	assert.False(t, l.TryConsume("ada"))
	b, _ := l.Bucket("ada")
	assert.Equal(t, 0, b.Tokens)
}

func TestMemoryLimiter_AvailableDoesNotMutate(t *testing.T) {
	l, advance := newTestLimiter(5, time.Minute)
	assert.Equal(t, 5, l.Available("ada"))
	_, ok := l.Bucket("ada")
	assert.False(t, ok, "Available must not create a bucket")

	l.TryConsume("ada")
	before, _ := l.Bucket("ada")
	advance(3 * time.Minute)
	l.Available("ada")
	after, _ := l.Bucket("ada")
	assert.Equal(t, before, after)
}

func TestMemoryLimiter_CallersAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(2, time.Minute)
	l.TryConsume("ada")
	l.TryConsume("ada")
	assert.False(t, l.TryConsume("ada"))
	assert.True(t, l.TryConsume("bob"))
}

func TestMemoryLimiter_ConcurrentConsumers(t *testing.T) {
	l, _ := newTestLimiter(50, time.Hour)

	var granted atomic.Int64
	var wg sync.WaitGroup
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryConsume("shared") {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), granted.Load())
	b, _ := l.Bucket("shared")
	assert.Equal(t, 0, b.Tokens)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero capacity", func(c *Config) { c.Capacity = 0 }, true},
		{"zero interval", func(c *Config) { c.RefillInterval = 0 }, true},
		{"unknown backend", func(c *Config) { c.Backend = "etcd" }, true},
		{"redis without addr", func(c *Config) { c.Backend = "redis"; c.Redis.Addr = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_Memory(t *testing.T) {
	l, err := New(context.Background(), DefaultConfig())
	require.NoError(t, err)
	_, ok := l.(*MemoryLimiter)
	assert.True(t, ok, "expected memory backend, got %T", l)
	assert.Equal(t, DefaultCapacity, l.Available("anyone"))
}

func TestNewMemoryLimiter_UnusableShapeFallsBackToDefaults(t *testing.T) {
	l, advance := newTestLimiter(0, 0)

	assert.Equal(t, DefaultCapacity, l.Available("ada"))
	for range DefaultCapacity {
		require.True(t, l.TryConsume("ada"))
	}
	assert.False(t, l.TryConsume("ada"))

	advance(DefaultRefillInterval)
	assert.Equal(t, 1, l.Available("ada"))
	assert.True(t, l.TryConsume("ada"))

	neg, _ := newTestLimiter(-3, -time.Second)
	assert.Equal(t, DefaultCapacity, neg.Available("bob"))
	assert.True(t, neg.TryConsume("bob"))
}

func TestRefill_NonPositiveIntervalRefillsFully(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 5, refill(0, 5, now, now.Add(time.Second), 0))
}
