package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "endpoint"})
)

// Metrics records request count and latency per route template.
func Metrics() gin.HandlerFunc {
	return func(gctx *gin.Context) {
		start := time.Now()

		gctx.Next()

		endpoint := gctx.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		method := gctx.Request.Method

		httpRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(gctx.Writer.Status())).Inc()
	}
}
