package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errcode"
	"github.com/cisbeo/scorpiusProject-sub002/internal/pkg/response"
)

type tenantBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	mu            sync.Mutex
	window        time.Duration
	buckets       map[string]*tenantBucket
	sweepInterval time.Duration
	lastSweep     time.Time
	now           func() time.Time
}

func newRateLimiter(window time.Duration) *rateLimiter {
	return &rateLimiter{
		window:        window,
		buckets:       make(map[string]*tenantBucket),
		sweepInterval: time.Minute,
		now:           time.Now,
	}
}

// RateLimit allows one request per window for each tenant and route, as a
// token bucket of size one. It guards the endpoints that end in a model call.
func RateLimit(window time.Duration) gin.HandlerFunc {
	return newRateLimiter(window).handle
}

// allow reports whether key may proceed at now and, when it may not, how
// long until it can.
func (l *rateLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) >= l.sweepInterval {
		l.sweepLocked(now)
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &tenantBucket{limiter: rate.NewLimiter(rate.Every(l.window), 1)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	if b.limiter.AllowN(now, 1) {
		return true, 0
	}
	missing := 1 - b.limiter.TokensAt(now)
	return false, time.Duration(missing * float64(l.window))
}

// sweepLocked drops buckets idle for a full window; they are full again and
// a fresh bucket behaves the same.
func (l *rateLimiter) sweepLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.window {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

func (l *rateLimiter) handle(c *gin.Context) {
	if l.window <= 0 {
		c.Next()
		return
	}
	tenant := c.GetString(ContextTenantIDKey)
	if tenant == "" {
		tenant = c.ClientIP()
	}
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	ok, wait := l.allow(strings.Join([]string{tenant, path}, "|"), l.now())
	if !ok {
		logutil.GetLogger(c.Request.Context()).Warn("rate limit hit",
			zap.String("tenant_id", tenant),
			zap.String("path", path),
			zap.Duration("retry_after", wait),
		)
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		response.Error(c, errcode.ErrTooMany, "")
		c.Abort()
		return
	}
	c.Next()
}
