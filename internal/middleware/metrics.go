package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/givelane/givelane-api/internal/service"
)

// Metrics records per-request counters and latency. Paths are labelled by
// route template so each :id does not become its own series.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			// Unmatched routes collapse into one label.
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
