package resources

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetrics records request count, latency and in-flight requests per route.
type HTTPMetrics struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	active   metric.Int64UpDownCounter
}

func NewHTTPMetrics(name string) *HTTPMetrics {
	meter := otel.Meter(name)

	requests, _ := meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("HTTP requests"),
	)
	latency, _ := meter.Float64Histogram(
		"http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
	)
	active, _ := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("HTTP requests in flight"),
	)

	return &HTTPMetrics{requests: requests, latency: latency, active: active}
}

func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()
		method := attribute.String("http.method", c.Request.Method)

		m.active.Add(ctx, 1, metric.WithAttributes(method))
		defer m.active.Add(ctx, -1, metric.WithAttributes(method))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		status := c.Writer.Status()
		attrs := metric.WithAttributes(
			method,
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
			attribute.String("http.status_class", strconv.Itoa(status/100)+"xx"),
		)

		m.requests.Add(ctx, 1, attrs)
		m.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	}
}
