package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/juju/ratelimit"
	"go.uber.org/zap"

	"github.com/shelfmark/shelfmark/internal/pkg/errcode"
	"github.com/shelfmark/shelfmark/internal/pkg/logutil"
	"github.com/shelfmark/shelfmark/internal/pkg/response"
)

// RateLimitConfig describes one token bucket policy: Max requests per Window,
// tracked per client ip and route.
type RateLimitConfig struct {
	Enabled bool
	Window  time.Duration
	Max     int64
}

type rateLimiter struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	buckets *lru.Cache[string, *ratelimit.Bucket]
}

// RateLimit throttles by ip+route. The bucket cache is bounded, so an
// attacker cycling source addresses evicts old buckets instead of growing
// memory without limit. Disabled or misconfigured limiters fail open.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.Window <= 0 || cfg.Max <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	cache, err := lru.New[string, *ratelimit.Bucket](10000)
	if err != nil {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := &rateLimiter{cfg: cfg, buckets: cache}
	return limiter.handle
}

func (l *rateLimiter) handle(c *gin.Context) {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	key := strings.Join([]string{c.ClientIP(), path}, "|")

	l.mu.Lock()
	bucket, ok := l.buckets.Get(key)
	if !ok {
		fillInterval := time.Duration(l.cfg.Window.Nanoseconds() / l.cfg.Max)
		bucket = ratelimit.NewBucket(fillInterval, l.cfg.Max)
		l.buckets.Add(key, bucket)
	}
	available := bucket.TakeAvailable(1)
	l.mu.Unlock()

	if available == 0 {
		logutil.GetLogger(c.Request.Context()).Warn("rate limit hit",
			zap.String("ip", c.ClientIP()),
			zap.String("path", path),
		)
		response.Error(c, http.StatusTooManyRequests, errcode.ErrTooMany, http.StatusText(http.StatusTooManyRequests))
		c.Abort()
		return
	}
	c.Next()
}
