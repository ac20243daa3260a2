package controller

import (
	"context"
	"net/http"

	"github.com/bassista/go_courses/internal/logger"
	"github.com/bassista/go_courses/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// StudentService is the subset of course.Service used by StudentController.
type StudentService interface {
	AddStudent(ctx context.Context, courseID, name, email string) (repository.Student, error)
	RemoveStudent(ctx context.Context, studentID string) error
	ListStudents(ctx context.Context, courseID string) ([]repository.Student, error)
}

// StudentController handles enrollment endpoints nested under a course.
type StudentController struct {
	service   StudentService
	validator *validator.Validate
}

func NewStudentController(service StudentService) *StudentController {
	return &StudentController{service: service, validator: validator.New()}
}

// CourseStudents handles GET /courses/:id/students.
func (sc *StudentController) CourseStudents(c *gin.Context) {
	courseID := c.Param("id")
	logger.WithComponent("student-controller").Debugf("GET /courses/%s/students handler called", courseID)
	students, err := sc.service.ListStudents(c.Request.Context(), courseID)
	if err != nil {
		writeError(c, "student-controller", err)
		return
	}
	c.JSON(http.StatusOK, students)
}

// AddStudent handles POST /courses/:id/students.
func (sc *StudentController) AddStudent(c *gin.Context) {
	courseID := c.Param("id")
	logger.WithComponent("student-controller").Debugf("POST /courses/%s/students handler called", courseID)
	var req AddStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := sc.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := sc.service.AddStudent(c.Request.Context(), courseID, req.Name, req.Email)
	if err != nil {
		writeError(c, "student-controller", err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// RemoveStudent handles DELETE /courses/:id/students/:studentId. The student is
// resolved by its own id; the course segment only scopes the URL.
func (sc *StudentController) RemoveStudent(c *gin.Context) {
	studentID := c.Param("studentId")
	logger.WithComponent("student-controller").Debugf("DELETE /courses/%s/students/%s handler called", c.Param("id"), studentID)
	if err := sc.service.RemoveStudent(c.Request.Context(), studentID); err != nil {
		writeError(c, "student-controller", err)
		return
	}
	c.Status(http.StatusNoContent)
}
