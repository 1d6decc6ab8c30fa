package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tazhibayda/rental-service/internal/log"
	"github.com/tazhibayda/rental-service/internal/repo"
	"go.uber.org/zap"
)

// Limiter decides whether one more request from key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type window struct {
	count int
	start time.Time
}

// MemoryLimiter is a per-process fixed window limiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	rate    int           // max requests per window
	period  time.Duration // window length
	now     func() time.Time
}

func NewMemoryLimiter(rate int, period time.Duration) *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*window), rate: rate, period: period, now: time.Now}
}

func (rl *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.period {
		rl.windows[key] = &window{count: 1, start: now}
		rl.gc(now)
		return true, nil
	}
	if w.count < rl.rate {
		w.count++
		return true, nil
	}
	return false, nil
}

// gc drops finished windows once the map grows; called with mu held.
func (rl *MemoryLimiter) gc(now time.Time) {
	if len(rl.windows) < 10000 {
		return
	}
	for k, w := range rl.windows {
		if now.Sub(w.start) >= rl.period {
			delete(rl.windows, k)
		}
	}
}

// RedisLimiter shares the fixed window across every instance behind the same Redis.
type RedisLimiter struct {
	rds    *repo.Redis
	prefix string
	rate   int
	period time.Duration
	now    func() time.Time
}

// NewRedisLimiter rounds period up to whole seconds, the granularity of Redis key expiry.
func NewRedisLimiter(rds *repo.Redis, prefix string, rate int, period time.Duration) *RedisLimiter {
	if period < time.Second {
		period = time.Second
	}
	period = period.Truncate(time.Second)
	return &RedisLimiter{rds: rds, prefix: prefix, rate: rate, period: period, now: time.Now}
}

// windowKey names the counter for key in the window containing the current time.
func (rl *RedisLimiter) windowKey(key string) string {
	slot := rl.now().UnixMilli() / rl.period.Milliseconds()
	return fmt.Sprintf("%s:%s:%d", rl.prefix, key, slot)
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := rl.rds.Hit(ctx, rl.windowKey(key), rl.period)
	if err != nil {
		return false, err
	}
	return n <= int64(rl.rate), nil
}

func ClientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}
	return ip
}

// RateLimit rejects requests over the limiter's budget with 429 and msg.
// A limiter error lets the request through.
func RateLimit(rl Limiter, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := rl.Allow(c.Request.Context(), ClientIP(c))
		if err != nil {
			log.WithDD(c.Request.Context(), nil).Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": msg})
			return
		}
		c.Next()
	}
}
