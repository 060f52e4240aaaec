package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "userdir",
			Name:      "http_requests_total",
			Help:      "Requests served by the directory API",
		},
		[]string{"path", "method", "status"},
	)
	apiLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "userdir",
			Name:      "http_request_duration_seconds",
			Help:      "Latency of directory API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"},
	)
)

func init() { prometheus.MustRegister(apiRequests, apiLatency) }

// Metrics observes every request under the route template (falling back to
// the raw path for unmatched routes, e.g. 404s).
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		apiRequests.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		apiLatency.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
