package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/bassista/go_courses/internal/logger"
	"github.com/containerd/errdefs"
	"github.com/gin-gonic/gin"
)

// writeError maps an error kind to its HTTP status. Unknown errors are logged and
// reported as 500 without details. An expired request deadline is answered with
// 504, the same body RequestTimeout would write.
func writeError(c *gin.Context, component string, err error) {
	switch {
	case errdefs.IsNotFound(err):
		logger.WithComponent(component).Debugf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errdefs.IsConflict(err), errdefs.IsAlreadyExists(err):
		logger.WithComponent(component).Debugf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errdefs.IsInvalidArgument(err):
		logger.WithComponent(component).Debugf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded), errdefs.IsDeadlineExceeded(err):
		logger.WithComponent(component).Warnf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timeout"})
	default:
		logger.WithComponent(component).Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
