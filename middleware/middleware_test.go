package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	midsec "PSocial/middleware/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Origin([]string{"http://localhost:5173"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestManagerRunsInOrderAndStopsOnAbort(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewManager()
	var seen []string
	m.Add(func(c *gin.Context) { seen = append(seen, "a") })
	m.Add(func(c *gin.Context) {
		seen = append(seen, "b")
		if c.Query("stop") != "" {
			c.AbortWithStatus(http.StatusTeapot)
		}
	})
	m.Add(func(c *gin.Context) { seen = append(seen, "c") })

	r := gin.New()
	r.Use(m.Use())
	r.GET("/x", func(c *gin.Context) { seen = append(seen, "h") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, []string{"a", "b", "c", "h"}, seen)

	seen = nil
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x?stop=1", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestAuthRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	UseAuth(midsec.DefaultOptions([]byte("s")))
	r := gin.New()
	GET(r, "/open", func(c *gin.Context) { c.Status(http.StatusOK) }, RouteOpt{})
	POST(r, "/closed", func(c *gin.Context) { c.Status(http.StatusOK) }, RouteOpt{IsAuth: true})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/closed", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
