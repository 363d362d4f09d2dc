package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/respiratools/bars/internal/monitoring"
)

func TestLimiterAllowsBurst(t *testing.T) {
	l := NewLimiter(Config{RequestsPerSecond: 1, Burst: 3, IdleEviction: time.Minute})

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d within burst", i+1)
	}
	assert.False(t, l.Allow("10.0.0.1"), "request beyond burst must be blocked")
}

func TestLimiterTracksClientsSeparately(t *testing.T) {
	l := NewLimiter(Config{RequestsPerSecond: 1, Burst: 1, IdleEviction: time.Minute})

	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))

	assert.Equal(t, 2, l.Size())
}

func TestMiddlewareBlocksWithRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	l := NewLimiter(Config{RequestsPerSecond: 1, Burst: 1, IdleEviction: time.Minute})
	metrics := monitoring.NewMetrics()

	r := gin.New()
	r.Use(Middleware(l, metrics))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, get().Code)

	blocked := get()
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "1", blocked.Header().Get("Retry-After"))
}
