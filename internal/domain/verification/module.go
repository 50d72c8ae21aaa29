package verification

import (
	attractionRepo "tour_verify/internal/domain/attraction/repository"
	attractionService "tour_verify/internal/domain/attraction/service"
	courseRepo "tour_verify/internal/domain/course/repository"
	courseService "tour_verify/internal/domain/course/service"
	"tour_verify/internal/domain/verification/generator"
	"tour_verify/internal/domain/verification/handler"
	"tour_verify/internal/domain/verification/repository"
	"tour_verify/internal/domain/verification/service"
	"tour_verify/internal/pkg/middleware"
	"tour_verify/internal/pkg/registry"
	"tour_verify/internal/pkg/uploader"
	"tour_verify/internal/pkg/worker"

	"github.com/gin-gonic/gin"
)

// VerificationModule 验证码模块：发码、核销、统计、清理
type VerificationModule struct{}

func init() {
	registry.Register(&VerificationModule{})
}

func (m *VerificationModule) Name() string {
	return "verification"
}

func (m *VerificationModule) Priority() int {
	return 20
}

func (m *VerificationModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	repo := repository.NewVerificationRepository(ctx.DB)
	gen := generator.New(repo.Exists)

	attractions := attractionService.NewAttractionService(attractionRepo.NewAttractionRepository(ctx.DB))
	courses := courseRepo.NewCourseRepository(ctx.DB)
	enrollments := courseRepo.NewEnrollmentRepository(ctx.DB)

	cooldown := service.NewCooldownPolicy(repo, ctx.Redis)
	tracker := courseService.NewProgressTracker(courses, enrollments, repo)

	issuer := service.NewIssueService(repo, gen, attractions, uploader.GlobalUploader)
	engine := service.NewRedemptionEngine(
		ctx.DB, repo, enrollments, courses, attractions,
		cooldown, tracker, worker.DefaultPool,
	)
	h := handler.NewVerificationHandler(issuer, engine)

	// 2. 路由注册
	setupRoutes(ctx.Router, h)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.VerificationHandler) {
	codes := r.Group("/codes")
	codes.Use(middleware.AuthMiddleware(), middleware.OperatorMiddleware())
	{
		codes.POST("/", h.Issue)
		codes.POST("/bulk", h.BulkIssue)
		codes.GET("/stats", h.Stats)
		codes.POST("/purge", h.Purge)
	}

	redeem := r.Group("/enrollments")
	redeem.Use(middleware.AuthMiddleware(), middleware.TouristMiddleware())
	{
		redeem.POST("/:id/redeem", h.Redeem)
	}
}
