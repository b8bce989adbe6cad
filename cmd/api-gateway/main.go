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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/samvidha-portal-api/api/swagger"
	"github.com/noah-isme/samvidha-portal-api/internal/handler"
	"github.com/noah-isme/samvidha-portal-api/internal/middleware"
	"github.com/noah-isme/samvidha-portal-api/internal/repository"
	"github.com/noah-isme/samvidha-portal-api/internal/service"
	"github.com/noah-isme/samvidha-portal-api/pkg/browser"
	"github.com/noah-isme/samvidha-portal-api/pkg/cache"
	"github.com/noah-isme/samvidha-portal-api/pkg/config"
	"github.com/noah-isme/samvidha-portal-api/pkg/export"
	"github.com/noah-isme/samvidha-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/samvidha-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/samvidha-portal-api/pkg/middleware/requestid"
	"github.com/noah-isme/samvidha-portal-api/pkg/secret"
	"github.com/noah-isme/samvidha-portal-api/pkg/storage"
)

// @title Samvidha Portal API
// @version 0.1.0
// @description Attendance and lab-record scraping service for the Samvidha college portal
// @BasePath /
// @schemes http

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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, falling back to in-process cache", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	box, err := secret.NewBox(cfg.Session.CredentialKey)
	if err != nil {
		logr.Fatal("failed to init credential sealing", zap.Error(err))
	}
	sessionRepo := repository.NewSessionRepository(cacheRepo, box, cfg.Session.TTL)

	pool := browser.NewPool(func(ctx context.Context) (browser.Session, error) {
		return browser.NewChromeSession(browser.Options{
			ChromeBin:   cfg.Browser.ChromeBin,
			Headless:    cfg.Browser.Headless,
			StepTimeout: cfg.Browser.StepTimeout,
		})
	}, browser.PoolConfig{
		Capacity:       cfg.Browser.PoolSize,
		AcquireTimeout: cfg.Browser.AcquireTimeout,
		ResetTimeout:   cfg.Browser.StepTimeout,
		Logger:         logr,
	})
	defer pool.Close()

	metricsSvc := service.NewMetricsService(pool.Stats)

	portalRepo := repository.NewPortalRepository(repository.PortalRepositoryParams{
		BaseURL:       cfg.Portal.BaseURL,
		AttendanceURL: cfg.Portal.AttendanceURL,
		LabRecordURL:  cfg.Portal.LabRecordURL,
		Logger:        logr,
	})
	portalClient := service.NewPortalClient(pool, portalRepo, logr)
	parser := service.NewAttendanceParser(cfg.Portal.ReferenceYear)

	attendanceSvc := service.NewAttendanceService(portalClient, portalRepo, parser, cacheRepo,
		metricsSvc, logr, service.AttendanceCacheConfig{
			Enabled: cfg.Cache.Enabled,
			TTL:     cfg.Cache.AttendanceTTL,
		})

	docStorage, err := storage.NewLocalStorage(cfg.Upload.StorageDir)
	if err != nil {
		logr.Fatal("failed to init upload staging dir", zap.Error(err))
	}
	labSvc := service.NewLabService(portalClient, portalRepo,
		export.NewPDFBuilder(cfg.Upload.MaxPDFBytes), docStorage,
		service.NewKeywordClassifier(), metricsSvc, logr)

	authSvc := service.NewAuthService(sessionRepo, validator.New(), logr, service.AuthConfig{
		TokenSecret: cfg.Session.Secret,
		TokenTTL:    cfg.Session.TTL,
		Issuer:      "samvidha-portal-api",
	})

	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, authSvc, cfg.Session.TTL)
	labHandler := handler.NewLabHandler(labSvc, attendanceSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/ping", attendanceHandler.Ping)
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.POST("/dashboard", attendanceHandler.Login)
	r.POST("/logout", attendanceHandler.Logout)

	authed := r.Group("/", middleware.Session(authSvc))
	{
		authed.GET("/dashboard", attendanceHandler.Dashboard)
		authed.GET("/b_safe", attendanceHandler.SafeBunk)
		authed.GET("/course/:code", attendanceHandler.Course)
		authed.GET("/profile", attendanceHandler.Profile)

		authed.GET("/lab", labHandler.Page)
		authed.POST("/lab", labHandler.Upload)
		authed.POST("/get_lab_subjects", labHandler.Subjects)
		authed.POST("/get_lab_dates", labHandler.Dates)
		authed.POST("/get_experiment_title", labHandler.Title)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown incomplete", zap.Error(err))
	}
}
