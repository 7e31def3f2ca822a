package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 10 * time.Minute
	limiterIdleCutoff    = 30 * time.Minute
)

// limiterPool keeps one token bucket per key (org id or client IP) and
// evicts buckets idle past the cutoff so the map does not grow without
// bound.
type limiterPool[K comparable] struct {
	mu      sync.Mutex
	buckets map[K]*bucketEntry
	rps     float64
	burst   int
}

type bucketEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool[K comparable](ctx context.Context, rps float64, burst int) *limiterPool[K] {
	p := &limiterPool[K]{
		buckets: make(map[K]*bucketEntry),
		rps:     rps,
		burst:   burst,
	}
	go p.sweep(ctx)
	return p
}

func (p *limiterPool[K]) allow(key K) bool {
	p.mu.Lock()
	e, ok := p.buckets[key]
	if !ok {
		e = &bucketEntry{limiter: rate.NewLimiter(rate.Limit(p.rps), p.burst)}
		p.buckets[key] = e
	}
	e.lastSeen = time.Now()
	lim := e.limiter
	p.mu.Unlock()

	return lim.Allow()
}

func (p *limiterPool[K]) sweep(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-limiterIdleCutoff)
			p.mu.Lock()
			for key, e := range p.buckets {
				if e.lastSeen.Before(cutoff) {
					delete(p.buckets, key)
				}
			}
			p.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

func tooManyRequests(w http.ResponseWriter) {
	http.Error(w, `{"title":"Too Many Requests","status":429,"detail":"rate limit exceeded"}`, http.StatusTooManyRequests)
}

// RateLimitByIP applies per-IP rate limiting for unauthenticated endpoints
// (e.g. auth routes). Relies on chi's RealIP middleware having rewritten
// r.RemoteAddr.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	pool := newLimiterPool[string](ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !pool.allow(r.RemoteAddr) {
				tooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies per-org rate limiting so one noisy tenant cannot starve
// the rest. Requests with no org in context (platform routes) pass through.
func RateLimit(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	pool := newLimiterPool[uuid.UUID](ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			orgID, ok := OrgIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if !pool.allow(orgID) {
				tooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
