package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/cahsa-api/internal/handler"
	"github.com/noah-isme/cahsa-api/internal/repository"
	"github.com/noah-isme/cahsa-api/internal/service"
	"github.com/noah-isme/cahsa-api/pkg/cache"
	"github.com/noah-isme/cahsa-api/pkg/config"
	"github.com/noah-isme/cahsa-api/pkg/database"
	"github.com/noah-isme/cahsa-api/pkg/events"
	"github.com/noah-isme/cahsa-api/pkg/logger"
	"github.com/noah-isme/cahsa-api/pkg/mailer"
)

// @title CAHSA Course Substitution API
// @version 1.0.0
// @description Course substitution requests for the College of Arts and Humanities advising portal.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, directory caching disabled", zap.Error(err))
		redisClient = nil
	}

	publisher := events.New(cfg.Events, logr)
	defer func() {
		if err := publisher.Close(); err != nil {
			logr.Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	metrics := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, 0, logr, cacheRepo.Enabled())

	requestRepo := repository.NewSubstitutionRequestRepository(db)
	advisorRepo := repository.NewAdvisorRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	students := service.NewStudentDirectoryService(repository.NewStudentDirectoryRepository(db), cacheSvc, cfg.DirectoryCache.StudentTTL, logr)
	programs := service.NewProgramDirectoryService(repository.NewProgramRepository(db), cacheSvc, cfg.DirectoryCache.ProgramTTL, logr)
	policy := service.NewReviewPolicy(cfg.Review)

	notifications, err := service.NewNotificationService(mailer.New(cfg.Mail, logr), service.NotificationConfig{
		From:     cfg.Mail.From,
		FromName: cfg.Mail.FromName,
		BaseURL:  cfg.BaseURL,
	}, metrics, logr)
	if err != nil {
		logr.Fatal("failed to load notification templates", zap.Error(err))
	}

	requests := service.NewRequestService(requestRepo, students, programs, advisorRepo, notifications, policy, logr,
		service.WithRequestEvents(publisher),
		service.WithRequestAudit(auditRepo),
		service.WithRequestMetrics(metrics),
	)
	exports := service.NewExportService(requests, logr, nil, nil)
	auth := service.NewAuthService(advisorRepo, service.NewBcryptVerifier(advisorRepo), policy, auditRepo, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})

	checks := map[string]handler.Pinger{"postgres": db}
	if cacheRepo.Enabled() {
		checks["redis"] = handler.PingFunc(cacheRepo.Ping)
	}

	router := newRouter(cfg, logr, metrics, auth, routeHandlers{
		auth:     handler.NewAuthHandler(auth),
		requests: handler.NewRequestHandler(requests, exports),
		students: handler.NewStudentHandler(students),
		ops:      handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
