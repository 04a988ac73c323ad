package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/filmgrab/config"
	"github.com/use-agent/filmgrab/models"
	"golang.org/x/time/rate"
)

const (
	visitorTTL    = time.Hour
	sweepInterval = 5 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitors holds one token bucket per identity.
type visitors struct {
	mu    sync.Mutex
	rps   rate.Limit
	burst int
	byID  map[string]*visitor
}

func newVisitors(cfg config.RateLimitConfig) *visitors {
	return &visitors{
		rps:   rate.Limit(cfg.RequestsPerSecond),
		burst: cfg.Burst,
		byID:  make(map[string]*visitor),
	}
}

func (v *visitors) allow(id string, now time.Time) bool {
	v.mu.Lock()
	entry, ok := v.byID[id]
	if !ok {
		entry = &visitor{limiter: rate.NewLimiter(v.rps, v.burst)}
		v.byID[id] = entry
	}
	entry.lastSeen = now
	v.mu.Unlock()
	return entry.limiter.AllowN(now, 1)
}

// sweep drops identities not seen since cutoff.
func (v *visitors) sweep(cutoff time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, entry := range v.byID {
		if entry.lastSeen.Before(cutoff) {
			delete(v.byID, id)
		}
	}
}

// sweepEvery evicts idle identities on every tick until ctx is done.
func (v *visitors) sweepEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			v.sweep(now.Add(-visitorTTL))
		}
	}
}

func (v *visitors) len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.byID)
}

// RateLimit returns per-identity (API key or client IP) token-bucket rate
// limiting middleware. Idle identities are evicted after an hour by a
// background sweeper that stops when ctx is done.
func RateLimit(ctx context.Context, cfg config.RateLimitConfig) gin.HandlerFunc {
	v := newVisitors(cfg)
	go v.sweepEvery(ctx, sweepInterval)

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		identity := c.GetString(APIKeyKey)
		if identity == "" {
			identity = c.ClientIP()
		}

		if !v.allow(identity, time.Now()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error: "rate limit exceeded, please slow down",
			})
			return
		}
		c.Next()
	}
}
