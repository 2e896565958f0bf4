package httpmiddleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
)

// RateLimitConfig configures the sliding window limiter.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
	// Key extracts the client key. Defaults to ClientIP.
	Key func(*gin.Context) string
}

// Validate reports a config the limiter cannot run with.
func (cfg RateLimitConfig) Validate() error {
	switch {
	case cfg.Max <= 0:
		return errors.Errorf("rate limit max must be positive, got %d", cfg.Max)
	case cfg.Window <= 0:
		return errors.Errorf("rate limit window must be positive, got %s", cfg.Window)
	}
	return nil
}

// ClientIP keys clients by their IP. The Fingerprint header is client
// controlled and never part of the key.
func ClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// window holds the counts of the current and previous fixed windows; the
// previous count is weighted by its overlap with the sliding window.
type window struct {
	start time.Time
	curr  float64
	prev  float64
}

type limiter struct {
	max  int
	size time.Duration

	mu      sync.Mutex
	clients map[string]*window
}

func newLimiter(cfg RateLimitConfig) *limiter {
	return &limiter{max: cfg.Max, size: cfg.Window, clients: make(map[string]*window)}
}

// take consumes one request for key. It reports the remaining budget, the end
// of the current window and whether the request is allowed.
func (l *limiter) take(key string, now time.Time) (int, time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.clients[key]
	if !ok {
		w = &window{start: now.Truncate(l.size)}
		l.clients[key] = w
	}
	switch elapsed := now.Sub(w.start); {
	case elapsed >= 2*l.size:
		w.start, w.prev, w.curr = now.Truncate(l.size), 0, 0
	case elapsed >= l.size:
		w.start, w.prev, w.curr = w.start.Add(l.size), w.curr, 0
	}

	overlap := 1 - float64(now.Sub(w.start))/float64(l.size)
	used := w.prev*math.Max(overlap, 0) + w.curr
	reset := w.start.Add(l.size)
	if used >= float64(l.max) {
		return 0, reset, false
	}
	w.curr++
	return max(int(float64(l.max)-used-1), 0), reset, true
}

// evict drops clients idle for two windows.
func (l *limiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.clients {
		if now.Sub(w.start) >= 2*l.size {
			delete(l.clients, key)
		}
	}
}

// RateLimit limits each client to cfg.Max requests per sliding cfg.Window and
// answers excess requests with 429. Idle clients are evicted until ctx is done.
//
// It panics if cfg does not pass Validate.
func RateLimit(ctx context.Context, cfg RateLimitConfig) gin.HandlerFunc {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	key := cfg.Key
	if key == nil {
		key = ClientIP
	}
	l := newLimiter(cfg)
	go func() {
		t := time.NewTicker(2 * cfg.Window)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				l.evict(now)
			}
		}
	}()

	limit := strconv.Itoa(cfg.Max)
	return func(c *gin.Context) {
		now := time.Now()
		remaining, reset, ok := l.take(key(c), now)

		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		if !ok {
			retry := math.Ceil(math.Max(reset.Sub(now).Seconds(), 0))
			c.Header("Retry-After", strconv.Itoa(int(retry)))
			writeError(c, http.StatusTooManyRequests, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}
