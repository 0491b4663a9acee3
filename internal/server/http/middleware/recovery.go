package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/dnsforyou/idgw/internal/observability"
)

// Recovery returns a middleware that recovers from handler panics, logs the
// stack, and responds with a 500.
func Recovery(logger observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					observability.Any("error", err),
					observability.String("requestId", GetRequestID(c)),
					observability.String("method", c.Request.Method),
					observability.String("path", c.Request.URL.Path),
					observability.String("stack", string(debug.Stack())),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"isSuccess": false,
					"message":   "Internal server error",
				})
			}
		}()

		c.Next()
	}
}
