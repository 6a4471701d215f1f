package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/election-survey-api/internal/service"
)

const (
	unmatchedRoute = "unmatched"
	scrapeRoute    = "/metrics"
)

// Metrics labels requests by route template so ids in paths do not explode
// label cardinality. Scrapes of the metrics endpoint are not counted.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.URL.Path == scrapeRoute {
			c.Next()
			return
		}
		done := metricsSvc.TrackInFlight()
		defer done()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
