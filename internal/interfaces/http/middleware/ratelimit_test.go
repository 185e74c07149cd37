package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wmsexpress/backend/internal/interfaces/http/dto"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(limit int, period time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	return newRateLimiter(limit, period, clock.Now), clock
}

func TestRateLimiter_Take(t *testing.T) {
	t.Run("budget per window", func(t *testing.T) {
		rl, clock := newTestLimiter(3, time.Minute)

		var remaining []int
		for range 3 {
			d := rl.Take("10.0.0.1")
			require.True(t, d.Allowed)
			remaining = append(remaining, d.Remaining)
		}
		assert.Equal(t, []int{2, 1, 0}, remaining)

		d := rl.Take("10.0.0.1")
		assert.False(t, d.Allowed)
		assert.Equal(t, 0, d.Remaining)
		assert.Equal(t, clock.Now().Add(time.Minute), d.ResetAt)
	})

	t.Run("keys are independent", func(t *testing.T) {
		rl, _ := newTestLimiter(1, time.Minute)
		assert.True(t, rl.Take("10.0.0.1").Allowed)
		assert.False(t, rl.Take("10.0.0.1").Allowed)
		assert.True(t, rl.Take("10.0.0.2").Allowed)
	})

	t.Run("new window after period", func(t *testing.T) {
		rl, clock := newTestLimiter(1, time.Minute)
		assert.True(t, rl.Take("k").Allowed)
		clock.Advance(59 * time.Second)
		assert.False(t, rl.Take("k").Allowed)
		clock.Advance(time.Second)
		d := rl.Take("k")
		assert.True(t, d.Allowed)
		assert.Equal(t, clock.Now().Add(time.Minute), d.ResetAt)
	})

	t.Run("idle windows are evicted", func(t *testing.T) {
		rl, clock := newTestLimiter(1, time.Minute)
		rl.Take("old")
		clock.Advance(90 * time.Second)
		rl.Take("fresh")
		clock.Advance(40 * time.Second)

		rl.evictIdle()
		assert.NotContains(t, rl.windows, "old")
		assert.Contains(t, rl.windows, "fresh")
	})

	t.Run("concurrent takes never exceed the limit", func(t *testing.T) {
		rl, _ := newTestLimiter(50, time.Minute)
		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0
		for range 200 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if rl.Take("shared").Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, allowed)
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Minute)
		rl.Stop()
		assert.NotPanics(t, rl.Stop)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, clock := newTestLimiter(2, time.Minute)
	router := gin.New()
	router.Use(RequestID(), RateLimit(rl))
	router.GET("/api/v1/clients", func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
		req.RemoteAddr = ip + ":5000"
		req.Header.Set(RequestIDHeader, "req-limit")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := call("192.0.2.1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	assert.Empty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, call("192.0.2.1").Code)

	clock.Advance(15 * time.Second)
	w = call("192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "45", w.Header().Get("Retry-After"))

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeRateLimited, resp.Error.Code)
	assert.Equal(t, "req-limit", resp.Error.RequestID)

	assert.Equal(t, http.StatusOK, call("192.0.2.2").Code)
}
