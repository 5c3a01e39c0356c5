// internal/app/system/ratelimit/keyed.go
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"golang.org/x/time/rate"
)

// KeyedLimiter is a token bucket per key, used to cap how often a single
// account may call the paid AI endpoints.
type KeyedLimiter struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
}

type keyedEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter allows perMinute events per key with the given burst.
func NewKeyedLimiter(perMinute float64, burst int) *KeyedLimiter {
	if burst < 1 {
		burst = 1
	}
	return &KeyedLimiter{
		entries: make(map[string]*keyedEntry),
		limit:   rate.Limit(perMinute / 60),
		burst:   burst,
		idleTTL: 15 * time.Minute,
	}
}

func (k *KeyedLimiter) get(key string) *rate.Limiter {
	now := time.Now()
	k.mu.Lock()
	defer k.mu.Unlock()

	if ent, ok := k.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}
	lim := rate.NewLimiter(k.limit, k.burst)
	k.entries[key] = &keyedEntry{lim: lim, lastSeen: now}
	return lim
}

// Allow consumes one token for key.
func (k *KeyedLimiter) Allow(key string) bool { return k.get(key).Allow() }

// RetryAfter estimates how long until key has a token again.
func (k *KeyedLimiter) RetryAfter(key string) time.Duration {
	r := k.get(key).Reserve()
	d := r.Delay()
	r.Cancel()
	return d
}

// Len returns the number of tracked keys.
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

// Cleanup drops keys idle for longer than the idle TTL.
func (k *KeyedLimiter) Cleanup() {
	cutoff := time.Now().Add(-k.idleTTL)
	k.mu.Lock()
	defer k.mu.Unlock()
	for key, ent := range k.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(k.entries, key)
		}
	}
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (k *KeyedLimiter) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				k.Cleanup()
			}
		}
	}()
}

// Middleware rejects requests over the limit with 429. keyFn picks the
// bucket, typically the signed-in user's ID; an empty key falls back to the
// client IP.
func (k *KeyedLimiter) Middleware(keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key == "" {
				key = "ip:" + ClientIP(r)
			}
			if !k.Allow(key) {
				secs := int(k.RetryAfter(key).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				apiresp.Error(w, http.StatusTooManyRequests, "rate limit exceeded, try again shortly")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
