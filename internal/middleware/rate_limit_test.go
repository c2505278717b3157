// internal/middleware/rate_limit_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestPerIPLimiterExhaustsBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewPerIPLimiter(rate.Every(time.Hour), 2)

	r := gin.New()
	r.Use(limiter.Handler())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	last := httptest.NewRecorder()
	r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Contains(t, last.Body.String(), "RATE_LIMITED")
}
