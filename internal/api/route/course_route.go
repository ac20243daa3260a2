package route

import (
	"github.com/bassista/go_courses/internal/api/controller"
	"github.com/gin-gonic/gin"
)

func NewCourseRouter(group *gin.RouterGroup, service controller.CourseService) {
	cc := controller.NewCourseController(service)

	group.GET("courses", cc.AllCourses)
	group.POST("courses", cc.CreateCourse)
	group.GET("courses/:id", cc.GetCourse)
	group.PATCH("courses/:id", cc.UpdateCourse)
	group.DELETE("courses/:id", cc.DeleteCourse)
	group.GET("courses/:id/diversity", cc.Diversity)
}
