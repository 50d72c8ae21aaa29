package course

import (
	attractionRepo "tour_verify/internal/domain/attraction/repository"
	"tour_verify/internal/domain/course/handler"
	"tour_verify/internal/domain/course/repository"
	"tour_verify/internal/domain/course/service"
	verificationRepo "tour_verify/internal/domain/verification/repository"
	verificationService "tour_verify/internal/domain/verification/service"
	"tour_verify/internal/pkg/middleware"
	"tour_verify/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CourseModule 课程模块
// 进度统计与冷却提示依赖验证码域，通过接口注入
type CourseModule struct{}

func init() {
	registry.Register(&CourseModule{})
}

func (m *CourseModule) Name() string {
	return "course"
}

func (m *CourseModule) Priority() int {
	return 10
}

func (m *CourseModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	courses := repository.NewCourseRepository(ctx.DB)
	enrollments := repository.NewEnrollmentRepository(ctx.DB)
	attractions := attractionRepo.NewAttractionRepository(ctx.DB)

	vRepo := verificationRepo.NewVerificationRepository(ctx.DB)
	cooldown := verificationService.NewCooldownPolicy(vRepo, ctx.Redis)

	svc := service.NewCourseService(courses, enrollments, attractions, cooldown, vRepo)
	h := handler.NewCourseHandler(svc)

	// 2. 路由注册
	setupRoutes(ctx.Router, h)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CourseHandler) {
	courses := r.Group("/courses")
	courses.Use(middleware.AuthMiddleware())
	{
		courses.GET("/", h.List)

		admin := courses.Group("")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.POST("/", h.Create)
		}

		tourist := courses.Group("")
		tourist.Use(middleware.TouristMiddleware())
		{
			tourist.POST("/:id/enroll", h.Enroll)
		}
	}

	enrollments := r.Group("/enrollments")
	enrollments.Use(middleware.AuthMiddleware(), middleware.TouristMiddleware())
	{
		enrollments.GET("/", h.MyEnrollments)
		enrollments.GET("/:id/progress", h.Progress)
		enrollments.POST("/:id/abandon", h.Abandon)
	}
}
