package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/busvas-search/helpers/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewIPRateLimiter_Defaults(t *testing.T) {
	limiter := NewIPRateLimiter(0, 0)
	assert.Equal(t, 1, limiter.requestsPerMin)
	assert.Equal(t, 1, limiter.burst)
}

func TestIPRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), NewIPRateLimiter(1, 1).Middleware())
	router.GET("/v1/search", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/search", nil)
		req.RemoteAddr = addr
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	assert.Equal(t, http.StatusOK, do("192.0.2.1:1234").Code)

	limited := do("192.0.2.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Contains(t, limited.Body.String(), "rate limit exceeded")
	assert.Contains(t, limited.Body.String(), limited.Header().Get(RequestIDHeader))

	// other clients have their own bucket
	assert.Equal(t, http.StatusOK, do("198.51.100.3:4321").Code)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), RequestLogger(zap.NewNop()))
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	id := resp.Header().Get(RequestIDHeader)
	require.True(t, utils.IsValidID(id))
	assert.Equal(t, id, resp.Body.String())

	incoming := utils.GenerateID()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, incoming, resp.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-an-id")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.NotEqual(t, "not-an-id", resp.Header().Get(RequestIDHeader))
}
