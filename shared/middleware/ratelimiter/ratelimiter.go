package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// bucket is a token bucket for one identity
type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// UserRateLimiter keeps one token bucket per identity (account id, IP).
// Idle buckets are evicted by Cleanup, driven by StartJanitor.
type UserRateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     float64 // tokens per second
	capacity float64
	idleTTL  time.Duration
	now      func() time.Time
}

func New(rate float64, capacity float64, idleTTL time.Duration) *UserRateLimiter {
	return &UserRateLimiter{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		capacity: capacity,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// PerMinute allows n requests per minute with the given burst.
func PerMinute(n float64, burst int) *UserRateLimiter {
	return New(n/60, float64(burst), time.Hour)
}

// Allow takes a token from identity's bucket if one is available.
func (l *UserRateLimiter) Allow(identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[identity]
	if !ok {
		b = &bucket{tokens: l.capacity, lastSeen: now}
		l.buckets[identity] = b
	}

	b.tokens += now.Sub(b.lastSeen).Seconds() * l.rate
	if b.tokens > l.capacity {
		b.tokens = l.capacity
	}
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Cleanup drops buckets idle for longer than the TTL and returns how many
// were removed.
func (l *UserRateLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idleTTL)
	removed := 0
	for id, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, id)
			removed++
		}
	}
	return removed
}

func (l *UserRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (l *UserRateLimiter) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}
