package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/cahsa-api/api/swagger"
	"github.com/noah-isme/cahsa-api/internal/handler"
	"github.com/noah-isme/cahsa-api/internal/middleware"
	"github.com/noah-isme/cahsa-api/internal/service"
	"github.com/noah-isme/cahsa-api/pkg/config"
	"github.com/noah-isme/cahsa-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/cahsa-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/cahsa-api/pkg/middleware/requestid"
)

type routeHandlers struct {
	auth     *handler.AuthHandler
	requests *handler.RequestHandler
	students *handler.StudentHandler
	ops      *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, tokens middleware.TokenValidator, h routeHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.ops.Health)
	r.GET("/ready", h.ops.Ready)
	r.GET("/metrics", h.ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", h.auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))
	secured.GET("/auth/me", h.auth.Me)
	secured.GET("/students/:pid", h.students.Lookup)

	requests := secured.Group("/requests")
	requests.GET("", h.requests.List)
	requests.GET("/export", h.requests.Export)
	requests.POST("", h.requests.Create)
	requests.GET("/:id", h.requests.Get)
	requests.PUT("/:id", h.requests.Update)
	requests.POST("/:id/transition", h.requests.Transition)

	return r
}
