package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/edupulse-api/internal/handler"
	"github.com/noah-isme/edupulse-api/internal/middleware"
	"github.com/noah-isme/edupulse-api/internal/models"
	"github.com/noah-isme/edupulse-api/internal/service"
	"github.com/noah-isme/edupulse-api/pkg/config"
	"github.com/noah-isme/edupulse-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edupulse-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edupulse-api/pkg/middleware/requestid"
)

type routerDeps struct {
	cfg         *config.Config
	logger      *zap.Logger
	metrics     *service.MetricsService
	tokens      middleware.TokenValidator
	performance *handler.PerformanceHandler
	ops         *handler.MetricsHandler
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.logger))
	r.Use(corsmiddleware.New(d.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.metrics))

	r.GET("/health", d.ops.Health)
	r.GET("/ready", d.ops.Ready)
	r.GET("/metrics", d.ops.Prometheus)

	if d.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staff := []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher}

	api := r.Group(d.cfg.APIPrefix)
	api.Use(middleware.FeatureFlag(d.cfg.Performance.Enabled, "performance insights"))
	api.Use(middleware.WithResponseMeta())
	api.Use(middleware.JWT(d.tokens))

	students := api.Group("/students/:id/performance", middleware.StudentAccess())
	students.GET("/summary", d.performance.Summary)
	students.GET("/analysis", d.performance.Analysis)
	students.GET("/comparison", d.performance.Comparison)
	students.GET("/export", d.performance.Export)
	students.DELETE("/cache", middleware.RequireRoles(staff...), d.performance.InvalidateCache)

	tools := api.Group("/performance")
	tools.POST("/analyze", d.performance.Analyze)
	tools.POST("/required-score", d.performance.RequiredScore)
	tools.POST("/predict", d.performance.Predict)
	tools.GET("/grade-scale", d.performance.GradeScale)

	api.GET("/system/metrics", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), d.ops.System)

	return r
}
