// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/contoso/storefront/internal/utils"
)

// PerIPLimiter throttles requests per client IP with a token bucket per
// address. Idle addresses are evicted so the map does not grow without
// bound.
type PerIPLimiter struct {
	mtx     sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
}

type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

func NewPerIPLimiter(limit rate.Limit, burst int) *PerIPLimiter {
	l := &PerIPLimiter{
		clients: make(map[string]*client),
		limit:   limit,
		burst:   burst,
		idleTTL: 3 * time.Minute,
	}
	go l.sweep()
	return l
}

func (l *PerIPLimiter) sweep() {
	for range time.Tick(time.Minute) {
		l.mtx.Lock()
		for ip, c := range l.clients {
			if time.Since(c.lastSeen) > l.idleTTL {
				delete(l.clients, ip)
			}
		}
		l.mtx.Unlock()
	}
}

func (l *PerIPLimiter) bucketFor(ip string) *rate.Limiter {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	c, ok := l.clients[ip]
	if !ok {
		c = &client{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = time.Now()
	return c.bucket
}

func (l *PerIPLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.bucketFor(ip).Allow() {
			logrus.WithFields(logrus.Fields{
				"ip":   ip,
				"path": c.Request.URL.Path,
			}).Warn("request rate limit exceeded")
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED",
				"too many requests, slow down", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

var (
	// 10 sustained requests per second with a burst of 20 across the API;
	// uploads are far stricter since each one writes to object storage.
	generalLimiter = NewPerIPLimiter(rate.Every(100*time.Millisecond), 20)
	uploadLimiter  = NewPerIPLimiter(rate.Every(6*time.Second), 10)
)

func GeneralRateLimit() gin.HandlerFunc {
	return generalLimiter.Handler()
}

func UploadRateLimit() gin.HandlerFunc {
	return uploadLimiter.Handler()
}
