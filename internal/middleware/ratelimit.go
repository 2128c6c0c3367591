package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/resumine/resumine/pkg/errors"
	"github.com/resumine/resumine/pkg/response"
)

// rateBucket tracks request timestamps for one client.
type rateBucket struct {
	hits []time.Time
}

// RateLimiter is a sliding-window limiter keyed by client IP. It protects
// guess-prone endpoints such as sign-in and code verification. The
// authoritative per-identity resend window lives in the reset flow itself;
// this limiter only caps raw request volume.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewRateLimiter allows limit requests per window for each client.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		buckets: make(map[string]*rateBucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Allow records a hit for the key and reports whether it is within the limit.
func (l *RateLimiter) Allow(key string) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[key]
	if !ok {
		bucket = &rateBucket{}
		l.buckets[key] = bucket
	}

	kept := bucket.hits[:0]
	for _, hit := range bucket.hits {
		if hit.After(cutoff) {
			kept = append(kept, hit)
		}
	}
	bucket.hits = kept

	if len(bucket.hits) >= l.limit {
		return false
	}

	bucket.hits = append(bucket.hits, now)
	return true
}

// Middleware rejects clients over the limit with a 429.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			response.Error(c, apperrors.ErrRateLimit)
			c.Abort()
			return
		}
		c.Next()
	}
}
