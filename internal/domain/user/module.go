package user

import (
	"tour_verify/internal/domain/user/handler"
	"tour_verify/internal/domain/user/repository"
	"tour_verify/internal/domain/user/service"
	"tour_verify/internal/pkg/middleware"
	"tour_verify/internal/pkg/otp"
	"tour_verify/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// UserModule 用户模块
type UserModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	// 用户模块优先级最高，其他模块依赖它
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	userRepo := repository.NewUserRepository(ctx.DB)
	otpService := otp.NewOTPService(ctx.Redis)
	userService := service.NewUserService(userRepo, otpService)
	userHandler := handler.NewUserHandler(userService)

	// 2. 路由注册
	setupRoutes(ctx.Router, userHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.UserHandler) {
	// 公开路由
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/otp", h.SendOTP)    // 发送验证码
		authGroup.POST("/login", h.Login)    // 登录/注册
	}

	// 受保护的路由
	userGroup := r.Group("/users")
	userGroup.Use(middleware.AuthMiddleware())
	{
		userGroup.GET("/me", h.Me)

		admin := userGroup.Group("")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.POST("/:id/approve", h.Approve)
		}
	}
}
