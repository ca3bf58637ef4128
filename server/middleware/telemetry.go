package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/pushhub/observability"
)

// Telemetry records request metrics and wraps each request in a span named
// after its route template. metrics may be nil.
func Telemetry(metrics *observability.RequestMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx, span := observability.StartSpan(c.Request.Context(), observability.SpanHTTPRequest,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.route", route),
				attribute.String("http.method", c.Request.Method),
				attribute.String(observability.AttrRequestID, c.GetHeader(HeaderRequestID)),
			),
		)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		if metrics != nil {
			metrics.RecordRequestStart(ctx)
		}
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
		if metrics != nil {
			metrics.RecordRequestEnd(ctx, route, c.Request.Method, status, time.Since(start))
		}
	}
}
