package httpmiddleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// exportCost weighs spreadsheet exports against plain API calls: one export
// builds a full workbook from the whole ledger, so it drains the bucket
// faster than a scan or a stats poll.
const exportCost = 5

// SimpleTokenBucket is an in-memory per-IP limiter. Scan traffic arrives in
// bursts from a handful of scanner devices at the entrance, so capacity
// covers a burst and the per-minute rate covers the steady stream; for a
// multi-instance deployment swap the state map for Redis.
type SimpleTokenBucket struct {
	capacity int
	rate     int
	mu       sync.Mutex
	state    map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewSimpleTokenBucket creates a limiter holding capacity tokens, refilled at
// perMinute tokens per minute.
func NewSimpleTokenBucket(capacity, perMinute int) *SimpleTokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &SimpleTokenBucket{
		capacity: capacity,
		rate:     perMinute,
		state:    make(map[string]*bucket),
	}
}

// GinMiddleware returns a gin handler enforcing per-IP limits, charging
// heavier requests more tokens.
func (l *SimpleTokenBucket) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.take(ip, requestCost(c.Request.URL.Path)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

// requestCost maps a request path to its token cost.
func requestCost(path string) int {
	if strings.HasPrefix(path, "/api/admin/export") {
		return exportCost
	}
	return 1
}

func (l *SimpleTokenBucket) take(key string, cost int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.state[key]
	now := time.Now()
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.state[key] = b
	} else {
		elapsed := now.Sub(b.last).Minutes()
		refill := int(elapsed * float64(l.rate))
		if refill > 0 {
			b.tokens += refill
			if b.tokens > l.capacity {
				b.tokens = l.capacity
			}
			b.last = now
		}
	}
	if b.tokens < cost {
		return false
	}
	b.tokens -= cost
	return true
}
