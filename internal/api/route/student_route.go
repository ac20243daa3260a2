package route

import (
	"github.com/bassista/go_courses/internal/api/controller"
	"github.com/gin-gonic/gin"
)

func NewStudentRouter(group *gin.RouterGroup, service controller.StudentService) {
	sc := controller.NewStudentController(service)

	group.GET("courses/:id/students", sc.CourseStudents)
	group.POST("courses/:id/students", sc.AddStudent)
	group.DELETE("courses/:id/students/:studentId", sc.RemoveStudent)
}
