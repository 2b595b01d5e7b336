// Package main 是应用程序入口
package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/resort-fleet-backend/internal/common/cache"
	"github.com/dumeirei/resort-fleet-backend/internal/common/config"
	"github.com/dumeirei/resort-fleet-backend/internal/common/jwt"
	"github.com/dumeirei/resort-fleet-backend/internal/common/metrics"
	commonMiddleware "github.com/dumeirei/resort-fleet-backend/internal/common/middleware"
	"github.com/dumeirei/resort-fleet-backend/internal/common/response"
	adminHandler "github.com/dumeirei/resort-fleet-backend/internal/handler/admin"
	"github.com/dumeirei/resort-fleet-backend/internal/middleware"
	"github.com/dumeirei/resort-fleet-backend/internal/models"
	"github.com/dumeirei/resort-fleet-backend/internal/repository"
	financeService "github.com/dumeirei/resort-fleet-backend/internal/service/finance"
)

// application 路由装配后需要在 main 中继续使用的组件
type application struct {
	dashboard *financeService.DashboardService
}

// setupRouter 设置路由
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) *application {
	// 创建 JWT 管理器，令牌由员工认证系统签发
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:           cfg.JWT.Secret,
		AccessExpireTime: cfg.JWT.AccessTokenDuration(),
		Issuer:           cfg.JWT.Issuer,
	})
	perms := middleware.DefaultRolePermissions()

	// 初始化仓储
	pageSize := cfg.Business.RecordStore.PageSize
	resortRepo := repository.NewResortRepository(db, pageSize)
	assetRepo := repository.NewAssetRepository(db, pageSize)
	revenueRepo := repository.NewRevenueRepository(db, pageSize)
	configRepo := repository.NewProfitSharingRepository(db, pageSize)
	expenseRepo := repository.NewExpenseRepository(db, pageSize)
	maintenanceRepo := repository.NewMaintenanceRepository(db, pageSize)

	// 初始化服务
	loader := financeService.NewRecordLoader(resortRepo, assetRepo, revenueRepo, configRepo, expenseRepo, maintenanceRepo)
	engine := financeService.NewEngine(engineOptions(&cfg.Business.ProfitSharing))
	statisticsSvc := financeService.NewStatisticsService(loader, engine, revenueRepo, financeService.ReportOptions{
		DefaultMonths: cfg.Business.Report.DefaultMonths,
		MaxMonths:     cfg.Business.Report.MaxMonths,
	})
	dashboardSvc := financeService.NewDashboardService(
		statisticsSvc,
		cache.NewStore(redisClient, cache.KeyPrefixDashboard),
		cfg.Business.Report.CacheTTLDuration(),
		perms.CanViewFinancials,
	)
	exportSvc := financeService.NewExportService(statisticsSvc)
	importSvc := financeService.NewRevenueImportService(loader, revenueRepo, dashboardSvc)

	// 初始化处理器
	dashboardH := adminHandler.NewDashboardHandler(dashboardSvc, cfg.Business.Report.WarmMonths)
	financeH := adminHandler.NewFinanceHandler(statisticsSvc, exportSvc)
	revenueH := adminHandler.NewRevenueHandler(statisticsSvc, importSvc)

	// 限流：Redis 不可用或未启用时放行
	limiterClient := redisClient
	if !cfg.RateLimit.Enabled {
		limiterClient = nil
	}
	heavyLimit := middleware.StaffRateLimit(limiterClient, cfg.RateLimit.HeavyRequests, cfg.RateLimit.WindowDuration())

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(commonMiddleware.Tracing(&commonMiddleware.TracingConfig{
		ServiceName: cfg.Tracing.ServiceName,
		SkipPaths:   []string{"/health", "/ping", "/ready", cfg.Metrics.Path},
	}))
	r.Use(commonMiddleware.InjectTraceContext())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.AccessLog(logger))
	if cfg.Metrics.Enabled {
		r.Use(metrics.GetMetrics().Middleware())
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	// Swagger 文档
	if !cfg.IsRelease() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// 管理后台 API
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.IPRateLimit(limiterClient, cfg.RateLimit.Requests, cfg.RateLimit.WindowDuration()))
	admin.Use(middleware.StaffAuth(jwtManager))
	admin.Use(middleware.NoCache())
	{
		dashboardH.RegisterRoutes(admin, perms)
		financeH.RegisterRoutes(admin, perms, heavyLimit)
		revenueH.RegisterRoutes(admin, perms, heavyLimit)
	}

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "接口不存在")
	})

	return &application{dashboard: dashboardSvc}
}

// engineOptions 分成配置解析选项
func engineOptions(cfg *config.ProfitSharingConfig) financeService.EngineOptions {
	pairs := make([]financeService.PairKey, 0, len(cfg.MultiVersionPairs))
	for _, p := range cfg.MultiVersionPairs {
		pairs = append(pairs, financeService.PairKey{
			ResortID: p.ResortID,
			Category: models.AssetCategory(strings.ToUpper(p.AssetCategory)),
		})
	}
	return financeService.EngineOptions{
		MultiVersionPairs: pairs,
		AlwaysVersioned:   cfg.AlwaysVersioned,
	}
}
