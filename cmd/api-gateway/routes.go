package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/lostfound-api/internal/handler"
	"github.com/noah-isme/lostfound-api/internal/middleware"
	"github.com/noah-isme/lostfound-api/internal/service"
	"github.com/noah-isme/lostfound-api/pkg/config"
	"github.com/noah-isme/lostfound-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lostfound-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lostfound-api/pkg/middleware/requestid"
)

type routeDeps struct {
	auth    middleware.Authenticator
	metrics *service.MetricsService
	reports *handler.ReportHandler
	admin   *handler.AdminHandler
	system  *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	r.GET("/health", deps.system.Health)
	r.GET("/ready", deps.system.Ready)
	r.GET("/metrics", deps.system.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(deps.auth), middleware.WithResponseMeta())

	api.GET("/me", deps.reports.Me)
	api.GET("/me/reports", deps.reports.MyReports)

	reports := api.Group("/reports")
	reports.POST("", deps.reports.Submit)
	reports.GET("/search", deps.reports.Search)
	reports.GET("/:id", deps.reports.Get)
	reports.POST("/:id/resolve", deps.reports.Resolve)
	reports.POST("/:id/transition", deps.reports.Transition)

	admin := api.Group("/admin", middleware.RequireAdmin())
	admin.GET("/reports/pending", deps.admin.Pending)
	admin.GET("/reports", deps.admin.List)
	admin.POST("/reports/:id/approve", deps.admin.Approve)
	admin.POST("/reports/:id/deny", deps.admin.Deny)
	admin.POST("/reports/:id/resolve", deps.admin.Resolve)
	admin.DELETE("/reports/:id", deps.admin.Delete)
	admin.GET("/stats", deps.admin.Stats)
	admin.GET("/stats/export", deps.admin.ExportStats)
	admin.GET("/metrics", deps.system.Snapshot)

	return r
}
