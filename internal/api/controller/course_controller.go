package controller

import (
	"context"
	"net/http"

	"github.com/bassista/go_courses/internal/course"
	"github.com/bassista/go_courses/internal/diversity"
	"github.com/bassista/go_courses/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// CourseService is the subset of course.Service used by CourseController.
type CourseService interface {
	CreateCourse(ctx context.Context, name, description string, maxCapacity int) (course.View, error)
	UpdateCourse(ctx context.Context, id string, in course.UpdateInput) (course.View, error)
	DeleteCourse(ctx context.Context, id string) error
	GetCourse(ctx context.Context, id string) (course.View, error)
	ListCourses(ctx context.Context) ([]course.View, error)
	DiversityDetails(ctx context.Context, courseID string) (diversity.Details, error)
}

// CourseController handles course endpoints.
type CourseController struct {
	service   CourseService
	validator *validator.Validate
}

func NewCourseController(service CourseService) *CourseController {
	return &CourseController{service: service, validator: validator.New()}
}

// AllCourses handles GET /courses.
func (cc *CourseController) AllCourses(c *gin.Context) {
	logger.WithComponent("course-controller").Debugf("GET /courses handler called")
	views, err := cc.service.ListCourses(c.Request.Context())
	if err != nil {
		writeError(c, "course-controller", err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetCourse handles GET /courses/:id.
func (cc *CourseController) GetCourse(c *gin.Context) {
	id := c.Param("id")
	logger.WithComponent("course-controller").Debugf("GET /courses/%s handler called", id)
	view, err := cc.service.GetCourse(c.Request.Context(), id)
	if err != nil {
		writeError(c, "course-controller", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreateCourse handles POST /courses.
func (cc *CourseController) CreateCourse(c *gin.Context) {
	logger.WithComponent("course-controller").Debugf("POST /courses handler called")
	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := cc.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := cc.service.CreateCourse(c.Request.Context(), req.Name, req.Description, req.MaxCapacity)
	if err != nil {
		writeError(c, "course-controller", err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// UpdateCourse handles PATCH /courses/:id.
func (cc *CourseController) UpdateCourse(c *gin.Context) {
	id := c.Param("id")
	logger.WithComponent("course-controller").Debugf("PATCH /courses/%s handler called", id)
	var req UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := cc.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := cc.service.UpdateCourse(c.Request.Context(), id, course.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		MaxCapacity: req.MaxCapacity,
	})
	if err != nil {
		writeError(c, "course-controller", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteCourse handles DELETE /courses/:id.
func (cc *CourseController) DeleteCourse(c *gin.Context) {
	id := c.Param("id")
	logger.WithComponent("course-controller").Debugf("DELETE /courses/%s handler called", id)
	if err := cc.service.DeleteCourse(c.Request.Context(), id); err != nil {
		writeError(c, "course-controller", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Diversity handles GET /courses/:id/diversity.
func (cc *CourseController) Diversity(c *gin.Context) {
	id := c.Param("id")
	logger.WithComponent("course-controller").Debugf("GET /courses/%s/diversity handler called", id)
	details, err := cc.service.DiversityDetails(c.Request.Context(), id)
	if err != nil {
		writeError(c, "course-controller", err)
		return
	}
	c.JSON(http.StatusOK, details)
}
