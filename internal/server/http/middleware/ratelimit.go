package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/dnsforyou/idgw/internal/observability"
)

// limiterTTL is how long an idle client's limiter is retained.
const limiterTTL = 10 * time.Minute

// clientLimiter pairs a token bucket with its last access time.
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter applies a per-client token bucket. Intended for the anonymous
// auth endpoints where no identity is available yet; clients are keyed by IP.
type RateLimiter struct {
	rps    rate.Limit
	burst  int
	logger observability.Logger

	mu       sync.Mutex
	clients  map[string]*clientLimiter
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a RateLimiter allowing rps sustained requests with
// the given burst per client. A background loop evicts idle clients.
func NewRateLimiter(rps float64, burst int, logger observability.Logger) *RateLimiter {
	if logger == nil {
		logger = observability.NopLogger()
	}

	rl := &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		logger:  logger,
		clients: make(map[string]*clientLimiter),
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop terminates the cleanup loop.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware returns the gin middleware enforcing the limit.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			rl.logger.Warn("rate limit exceeded",
				observability.String("clientIP", c.ClientIP()),
				observability.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"isSuccess": false,
				"message":   "Too many requests",
			})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[key] = cl
	}
	cl.lastAccess = time.Now()
	rl.mu.Unlock()

	return cl.limiter.Allow()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-limiterTTL)
			rl.mu.Lock()
			for key, cl := range rl.clients {
				if cl.lastAccess.Before(cutoff) {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}
