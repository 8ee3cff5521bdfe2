package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter decides whether a request identified by key may proceed
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// defaultIdleTTL is how long an unused key keeps its bucket
const defaultIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter keeps one token bucket per key in process memory.
// Idle buckets are swept lazily on Allow.
type KeyedRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewKeyedRateLimiter allows requestsPerMinute per key with a burst of the same size
func NewKeyedRateLimiter(requestsPerMinute int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(float64(requestsPerMinute) / 60),
		burst:    max(requestsPerMinute, 1),
		idleTTL:  defaultIdleTTL,
		now:      time.Now,
	}
}

// Allow takes a token from key's bucket
func (l *KeyedRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.idleTTL {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > l.idleTTL {
				delete(l.limiters, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1), nil
}

// Reset forgets key's bucket
func (l *KeyedRateLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, key)
	return nil
}

// Len reports how many keys are tracked
func (l *KeyedRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// PrefixedRateLimiter namespaces keys so one backend can serve several limits
type PrefixedRateLimiter struct {
	prefix  string
	limiter RateLimiter
}

// NewIPRateLimiter limits per client IP
func NewIPRateLimiter(limiter RateLimiter) *PrefixedRateLimiter {
	return &PrefixedRateLimiter{prefix: "ip:", limiter: limiter}
}

// NewUserRateLimiter limits per authenticated user
func NewUserRateLimiter(limiter RateLimiter) *PrefixedRateLimiter {
	return &PrefixedRateLimiter{prefix: "user:", limiter: limiter}
}

// Allow checks the prefixed key
func (l *PrefixedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.limiter.Allow(ctx, l.prefix+key)
}

// Reset resets the prefixed key
func (l *PrefixedRateLimiter) Reset(ctx context.Context, key string) error {
	return l.limiter.Reset(ctx, l.prefix+key)
}
