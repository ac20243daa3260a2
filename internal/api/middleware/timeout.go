package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bassista/go_courses/internal/logger"
	"github.com/gin-gonic/gin"
)

// RequestTimeout sets a per-request context deadline that repository calls observe.
// The handler is not interrupted; if it returns after the deadline without writing,
// the client gets 504.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			logger.WithComponent("timeout-middleware").Warnf("%s %s exceeded %v", c.Request.Method, c.Request.URL.Path, d)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
				"error": "request timeout",
			})
		}
	}
}
