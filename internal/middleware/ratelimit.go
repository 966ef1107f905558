package middleware

import (
	"net/http"
	"sync"
	"time"

	"aphro-backend/internal/metrics"
)

// anonymousBucket is shared by every request that presents no identity
const anonymousBucket = "anonymous"

// TimestampStore keeps per-identity request timestamps. The in-memory
// store below is per-process; a shared backend can replace it without
// changing the admission algorithm. The admission decision is a single
// store operation so that concurrent requests cannot interleave between
// counting and recording.
type TimestampStore interface {
	// TryAdmit drops timestamps older than cutoff, and if fewer than max
	// remain, records now and reports true. Prune, compare and record are
	// one atomic operation.
	TryAdmit(key string, now, cutoff time.Time, max int) bool
}

// MemoryStore is a mutex-protected in-memory TimestampStore
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string][]time.Time)}
}

// TryAdmit prunes the key's window and admits the request iff fewer than
// max timestamps remain, all under one lock acquisition
func (s *MemoryStore) TryAdmit(key string, now, cutoff time.Time, max int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.buckets[key][:0]
	for _, ts := range s.buckets[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= max {
		s.buckets[key] = kept
		return false
	}
	kept = append(kept, now)
	s.buckets[key] = kept
	return true
}

// Limiter is a sliding-window admission controller: at most max requests
// per identity within the trailing window
type Limiter struct {
	store  TimestampStore
	window time.Duration
	max    int
	now    func() time.Time
}

// NewLimiter creates a sliding-window limiter over the given store
func NewLimiter(store TimestampStore, window time.Duration, max int) *Limiter {
	return &Limiter{
		store:  store,
		window: window,
		max:    max,
		now:    time.Now,
	}
}

// Allow admits or rejects one request for the given identity
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	return l.store.TryAdmit(key, now, now.Add(-l.window), l.max)
}

// RateLimit returns a middleware that admits requests through the
// limiter, keyed by the X-User-Id header with a shared anonymous bucket
// as fallback
func RateLimit(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-User-Id")
			if key == "" {
				key = anonymousBucket
			}
			if !l.Allow(key) {
				metrics.RateLimitedTotal.Inc()
				respondError(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
