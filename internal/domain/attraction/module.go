package attraction

import (
	"tour_verify/internal/domain/attraction/handler"
	"tour_verify/internal/domain/attraction/repository"
	"tour_verify/internal/domain/attraction/service"
	"tour_verify/internal/pkg/middleware"
	"tour_verify/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// AttractionModule 景区模块
type AttractionModule struct{}

func init() {
	registry.Register(&AttractionModule{})
}

func (m *AttractionModule) Name() string {
	return "attraction"
}

func (m *AttractionModule) Priority() int {
	return 5
}

func (m *AttractionModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	repo := repository.NewAttractionRepository(ctx.DB)
	svc := service.NewAttractionService(repo)
	h := handler.NewAttractionHandler(svc)

	// 2. 路由注册
	setupRoutes(ctx.Router, h)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.AttractionHandler) {
	g := r.Group("/attractions")
	g.Use(middleware.AuthMiddleware())
	{
		g.GET("/", h.List)

		operator := g.Group("")
		operator.Use(middleware.OperatorMiddleware())
		{
			operator.POST("/", h.Register)
			operator.GET("/mine", h.Mine)
		}
	}
}
