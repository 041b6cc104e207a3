package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/classmanager/backend/internal/service"
)

// Metrics observes every request on the metrics service. Scrapes of the
// /metrics endpoint itself are not recorded.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		// Prefer the route template so path parameters don't explode the
		// label cardinality; unmatched requests fall back to the raw path.
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
