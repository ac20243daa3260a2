package route

import (
	"net/http"

	"github.com/bassista/go_courses/internal/api/controller"
	"github.com/bassista/go_courses/internal/api/middleware"
	"github.com/bassista/go_courses/internal/app"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// SetupRoutes builds the engine serving the course API, health and metrics.
func SetupRoutes(appCtx *app.App, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.HoneybadgerMiddleware(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(appCtx.Config.Server.CORSAllowedOrigins))

	hc := controller.NewHealthController(appCtx.Repo)
	r.GET("/health", hc.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(appCtx.Registry, promhttp.HandlerOpts{})))

	publicRouter := r.Group("", middleware.RequestTimeout(appCtx.Config.Server.RequestTimeout))
	NewCourseRouter(publicRouter, appCtx.Courses)
	NewStudentRouter(publicRouter, appCtx.Courses)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}
