package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/resumine/resumine/pkg/metrics"
)

// Metrics records per-route latency. The route template is used rather than
// the raw path so ids do not explode label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.APILatency.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
