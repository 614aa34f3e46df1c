package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/truongngoctrac/claims-platform/pkg/logger"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(handlers...)
	engine.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})
	engine.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})
	engine.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return engine
}

func get(engine *gin.Engine, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	engine := newEngine(RequestID())

	w := get(engine, "/ping", map[string]string{HeaderXRequestID: "trace-123"})
	assert.Equal(t, "trace-123", w.Body.String())
	assert.Equal(t, "trace-123", w.Header().Get(HeaderXRequestID))

	w = get(engine, "/ping", nil)
	assert.Len(t, w.Body.String(), 36)

	w = get(engine, "/ping", map[string]string{HeaderXRequestID: "bad id\twith spaces"})
	assert.NotEqual(t, "bad id\twith spaces", w.Body.String())
	assert.Len(t, w.Body.String(), 36)

	w = get(engine, "/ping", map[string]string{HeaderXRequestID: strings.Repeat("a", 65)})
	assert.Len(t, w.Body.String(), 36)
}

func TestSecurityHeaders(t *testing.T) {
	w := get(newEngine(SecurityHeaders(DefaultSecurityConfig())), "/ping", nil)
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	w = get(newEngine(SecurityHeaders(SecurityConfig{})), "/ping", nil)
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	assert.Empty(t, w.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 2, IdleTTL: time.Minute})
	engine := newEngine(limiter.RateLimit())

	assert.Equal(t, http.StatusOK, get(engine, "/ping", nil).Code)
	assert.Equal(t, http.StatusOK, get(engine, "/ping", nil).Code)
	w := get(engine, "/ping", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limited")
}

func TestSizeLimit(t *testing.T) {
	engine := newEngine(SizeLimit(SizeLimitConfig{MaxBodySize: 8}))

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 32)))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "payload_too_large")

	req = httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("small"))
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecovery(t *testing.T) {
	w := get(newEngine(RequestID(), Recovery(logger.Nop())), "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
	assert.NotContains(t, w.Body.String(), "boom")
}
