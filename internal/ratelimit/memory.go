package ratelimit

import (
	"sync"
	"time"

	"github.com/abhisek/quizzler/internal/metrics"
)

// Bucket is one caller's token state.
type Bucket struct {
	Tokens       int
	LastRefillAt time.Time
}

// MemoryLimiter keeps buckets in process memory. Buckets are created on a
// caller's first request and never evicted.
type MemoryLimiter struct {
	mu       sync.Mutex
	capacity int
	interval time.Duration
	buckets  map[string]*Bucket
	now      func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter. A capacity below one or a
// non-positive interval falls back to DefaultCapacity or
// DefaultRefillInterval.
func NewMemoryLimiter(capacity int, interval time.Duration) *MemoryLimiter {
	capacity, interval = bucketShape(capacity, interval)
	return &MemoryLimiter{
		capacity: capacity,
		interval: interval,
		buckets:  make(map[string]*Bucket),
		now:      time.Now,
	}
}

func (l *MemoryLimiter) TryConsume(callerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[callerID]
	if !ok {
		b = &Bucket{Tokens: l.capacity, LastRefillAt: now}
		l.buckets[callerID] = b
	}

	b.Tokens = refill(b.Tokens, l.capacity, b.LastRefillAt, now, l.interval)
	b.LastRefillAt = now

	if b.Tokens < 1 {
		metrics.LimiterDecisions.WithLabelValues("memory", "refused").Inc()
		return false
	}
	b.Tokens--
	metrics.LimiterDecisions.WithLabelValues("memory", "allowed").Inc()
	return true
}

func (l *MemoryLimiter) Available(callerID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[callerID]
	if !ok {
		return l.capacity
	}
	return refill(b.Tokens, l.capacity, b.LastRefillAt, l.now(), l.interval)
}

// Bucket returns a copy of the caller's bucket, if one exists.
func (l *MemoryLimiter) Bucket(callerID string) (Bucket, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[callerID]
	if !ok {
		return Bucket{}, false
	}
	return *b, true
}
