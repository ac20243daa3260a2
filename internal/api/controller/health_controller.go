package controller

import (
	"context"
	"net/http"

	"github.com/bassista/go_courses/internal/logger"
	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	store Pinger
}

func NewHealthController(store Pinger) *HealthController {
	return &HealthController{store: store}
}

// Health handles GET /health.
func (hc *HealthController) Health(c *gin.Context) {
	if err := hc.store.Ping(c.Request.Context()); err != nil {
		logger.WithComponent("health-controller").Warnf("repository ping failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "DOWN", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "UP"})
}
