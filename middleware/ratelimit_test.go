package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PSocial/global"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitPerUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if u := c.GetHeader("X-User"); u != "" {
			global.SetSession(c, u)
		}
	})
	r.POST("/x", RateLimit(RateLimitConfig{RPS: 0.001, Burst: 2}), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set("X-User", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, send("alice"))
	assert.Equal(t, http.StatusOK, send("alice"))
	assert.Equal(t, http.StatusTooManyRequests, send("alice"))
	// bob has his own bucket
	assert.Equal(t, http.StatusOK, send("bob"))
}

func TestLimiterPoolEvictsIdleKeys(t *testing.T) {
	p := newLimiterPool(RateLimitConfig{IdleTTL: time.Minute})
	now := time.Now()
	p.nowFunc = func() time.Time { return now }

	assert.True(t, p.Allow("a"))
	assert.True(t, p.Allow("b"))
	assert.Equal(t, 2, p.Len())

	now = now.Add(2 * time.Minute)
	assert.True(t, p.Allow("c"))
	assert.Equal(t, 1, p.Len())
}
