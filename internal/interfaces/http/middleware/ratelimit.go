package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wmsexpress/backend/internal/interfaces/http/dto"
)

// Decision is the outcome of one limiter check
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// window is the request budget of one key
type window struct {
	start time.Time
	used  int
}

// RateLimiter is a fixed-window, in-memory limiter keyed by client IP.
// Windows idle for two periods are evicted in the background until Stop.
type RateLimiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter allows limit requests per key in each period.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := newRateLimiter(limit, period, time.Now)
	go rl.evictLoop()
	return rl
}

func newRateLimiter(limit int, period time.Duration, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		period:  period,
		now:     now,
		windows: make(map[string]*window),
		stop:    make(chan struct{}),
	}
}

// Stop ends background eviction. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(2 * rl.period)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, w := range rl.windows {
		if now.Sub(w.start) > 2*rl.period {
			delete(rl.windows, key)
		}
	}
}

// Take consumes one request from key's budget when any is left.
func (rl *RateLimiter) Take(key string) Decision {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.period {
		w = &window{start: now}
		rl.windows[key] = w
	}

	d := Decision{Limit: rl.limit, ResetAt: w.start.Add(rl.period)}
	if w.used < rl.limit {
		w.used++
		d.Allowed = true
	}
	d.Remaining = rl.limit - w.used
	return d
}

// RateLimit rejects requests over the per-IP budget with 429 and a
// Retry-After header. Every response carries the X-RateLimit headers.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := limiter.Take(c.ClientIP())

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			wait := d.ResetAt.Sub(limiter.now()).Seconds()
			h.Set("Retry-After", strconv.Itoa(max(1, int(math.Ceil(wait)))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				c.GetString(RequestIDKey),
			))
			return
		}
		c.Next()
	}
}
