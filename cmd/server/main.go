package main

import (
	"log"

	"tour_verify/internal/pkg/config"
	"tour_verify/internal/pkg/middleware"
	"tour_verify/internal/pkg/push"
	"tour_verify/internal/pkg/registry"
	"tour_verify/internal/pkg/uploader"
	"tour_verify/internal/pkg/worker"
	"tour_verify/pkg/database"
	"tour_verify/pkg/logger"
	"tour_verify/pkg/metrics"

	// 各业务模块通过 init() 自注册
	_ "tour_verify/internal/domain/attraction"
	_ "tour_verify/internal/domain/course"
	_ "tour_verify/internal/domain/reward"
	_ "tour_verify/internal/domain/user"
	_ "tour_verify/internal/domain/verification"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. 配置与日志
	config.LoadConfig()
	if err := logger.Init(config.GlobalConfig.App.Env); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 2. 基础设施
	db := database.InitDatabase()
	rdb := database.InitRedis()

	// 3. 可选的外部协作方，配置缺失时降级
	if err := uploader.InitUploader(); err != nil {
		logger.Log.Warn("OSS uploader disabled", zap.Error(err))
	}
	if err := push.InitPushService(); err != nil {
		logger.Log.Warn("Push service disabled", zap.Error(err))
	}
	worker.DefaultPool.Start()

	// 4. HTTP 引擎与全局中间件
	gin.SetMode(config.GlobalConfig.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.RateLimitMiddleware())
	r.Use(metrics.Default.HTTPMiddleware())

	r.GET("/metrics", metrics.Handler())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 5. 按优先级初始化业务模块
	if err := registry.InitModules(&registry.ModuleContext{
		DB:     db,
		Redis:  rdb,
		Router: r,
	}); err != nil {
		log.Fatalf("Failed to init modules: %v", err)
	}

	port := config.GlobalConfig.Server.Port
	logger.Log.Info("server starting", zap.String("port", port))
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}
