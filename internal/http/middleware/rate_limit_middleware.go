package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/propfolio/propfolio/internal/http/response"
)

// RateLimiter is a per-client fixed-window limiter kept in process
// memory. Windows are keyed by remote IP.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*windowState
	sweep   time.Time
}

type windowState struct {
	count int
	reset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*windowState),
		sweep:   time.Now().Add(window),
	}
}

func (l *RateLimiter) allow(key string) (bool, time.Duration) {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.sweep) {
		for k, st := range l.buckets {
			if now.After(st.reset) {
				delete(l.buckets, k)
			}
		}
		l.sweep = now.Add(l.window)
	}

	st, ok := l.buckets[key]
	if !ok || now.After(st.reset) {
		l.buckets[key] = &windowState{count: 1, reset: now.Add(l.window)}
		return true, 0
	}
	if st.count >= l.limit {
		return false, time.Until(st.reset)
	}
	st.count++
	return true, 0
}

func (l *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			key, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				key = r.RemoteAddr
			}
			ok, retryAfter := l.allow(key)
			if !ok {
				w.Header().Set("Retry-After", retryAfter.Truncate(time.Second).String())
				response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
