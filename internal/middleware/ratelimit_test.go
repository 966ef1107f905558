package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(window time.Duration, max int) (*Limiter, *time.Time) {
	now := time.Unix(1700000000, 0)
	l := NewLimiter(NewMemoryStore(), window, max)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_WindowCount(t *testing.T) {
	l, now := newTestLimiter(60*time.Second, 30)

	for i := 0; i < 30; i++ {
		assert.True(t, l.Allow("alice"), "request %d should be admitted", i+1)
		*now = now.Add(time.Second)
	}
	assert.False(t, l.Allow("alice"), "31st request inside the window must be rejected")
}

func TestLimiter_WindowSlides(t *testing.T) {
	l, now := newTestLimiter(60*time.Second, 30)

	for i := 0; i < 30; i++ {
		assert.True(t, l.Allow("alice"))
	}
	assert.False(t, l.Allow("alice"))

	// Once the window has elapsed the identity is admitted again.
	*now = now.Add(61 * time.Second)
	assert.True(t, l.Allow("alice"))
}

func TestLimiter_KeysIndependent(t *testing.T) {
	l, _ := newTestLimiter(60*time.Second, 2)

	assert.True(t, l.Allow("alice"))
	assert.True(t, l.Allow("alice"))
	assert.False(t, l.Allow("alice"))
	assert.True(t, l.Allow("bob"), "another identity has its own window")
}

func TestLimiter_ConcurrentRequestsAdmitExactlyMax(t *testing.T) {
	l, _ := newTestLimiter(60*time.Second, 30)

	var (
		start    sync.WaitGroup
		done     sync.WaitGroup
		admitted atomic.Int32
	)
	start.Add(1)
	for i := 0; i < 64; i++ {
		done.Add(1)
		go func() {
			defer done.Done()
			start.Wait()
			if l.Allow("alice") {
				admitted.Add(1)
			}
		}()
	}
	start.Done()
	done.Wait()

	assert.Equal(t, int32(30), admitted.Load(), "concurrent requests over one identity must not over-admit")
}

func TestRateLimitMiddleware(t *testing.T) {
	l, _ := newTestLimiter(60*time.Second, 2)
	handler := RateLimit(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if userID != "" {
			req.Header.Set("X-User-Id", userID)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("alice"))
	assert.Equal(t, http.StatusOK, do("alice"))
	assert.Equal(t, http.StatusTooManyRequests, do("alice"))

	// Requests without identity share the anonymous bucket.
	assert.Equal(t, http.StatusOK, do(""))
	assert.Equal(t, http.StatusOK, do(""))
	assert.Equal(t, http.StatusTooManyRequests, do(""))
}
