package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dnsforyou/idgw/internal/observability"
)

// Logging returns a middleware that logs each request on completion. Health
// probe paths are skipped to keep the logs readable.
func Logging(logger observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if isProbePath(path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []observability.Field{
			observability.String("requestId", GetRequestID(c)),
			observability.String("method", c.Request.Method),
			observability.String("path", path),
			observability.Int("status", status),
			observability.Duration("latency", time.Since(start)),
			observability.String("clientIP", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, observability.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Error("request completed", fields...)
		case status >= 400:
			logger.Warn("request completed", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}

func isProbePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}
