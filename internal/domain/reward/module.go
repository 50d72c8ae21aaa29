package reward

import (
	attractionRepo "tour_verify/internal/domain/attraction/repository"
	courseRepo "tour_verify/internal/domain/course/repository"
	"tour_verify/internal/domain/reward/handler"
	"tour_verify/internal/domain/reward/repository"
	"tour_verify/internal/domain/reward/service"
	"tour_verify/internal/pkg/middleware"
	"tour_verify/internal/pkg/registry"
	"tour_verify/internal/pkg/worker"

	"github.com/gin-gonic/gin"
)

// RewardModule 奖励申领模块
type RewardModule struct{}

func init() {
	registry.Register(&RewardModule{})
}

func (m *RewardModule) Name() string {
	return "reward"
}

func (m *RewardModule) Priority() int {
	return 30
}

func (m *RewardModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	claims := repository.NewClaimRepository(ctx.DB)
	enrollments := courseRepo.NewEnrollmentRepository(ctx.DB)
	courses := courseRepo.NewCourseRepository(ctx.DB)
	attractions := attractionRepo.NewAttractionRepository(ctx.DB)

	svc := service.NewClaimService(ctx.DB, claims, enrollments, courses, attractions, worker.DefaultPool)
	h := handler.NewRewardHandler(svc)

	// 2. 路由注册
	setupRoutes(ctx.Router, h)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.RewardHandler) {
	enrollments := r.Group("/enrollments")
	enrollments.Use(middleware.AuthMiddleware(), middleware.TouristMiddleware())
	{
		enrollments.POST("/:id/claim", h.Claim)
	}

	claims := r.Group("/claims")
	claims.Use(middleware.AuthMiddleware(), middleware.TouristMiddleware())
	{
		claims.GET("/", h.MyClaims)
	}
}
