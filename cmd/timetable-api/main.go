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

	_ "github.com/noah-isme/campus-timetable/api/swagger"
	"github.com/noah-isme/campus-timetable/internal/handler"
	internalmiddleware "github.com/noah-isme/campus-timetable/internal/middleware"
	"github.com/noah-isme/campus-timetable/internal/models"
	"github.com/noah-isme/campus-timetable/internal/repository"
	"github.com/noah-isme/campus-timetable/internal/service"
	"github.com/noah-isme/campus-timetable/pkg/cache"
	"github.com/noah-isme/campus-timetable/pkg/config"
	"github.com/noah-isme/campus-timetable/pkg/database"
	"github.com/noah-isme/campus-timetable/pkg/jobs"
	"github.com/noah-isme/campus-timetable/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-timetable/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-timetable/pkg/middleware/requestid"
)

// @title Campus Timetable API
// @version 1.0.0
// @description Timetable generation, publishing and export for campus sections.
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	metricsSvc := service.NewMetricsService()
	readiness := []handler.ReadinessCheck{{Name: "postgres", Ping: db.PingContext}}

	var cacheRepo service.CacheRepository
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	switch {
	case err != nil:
		logr.Warn("redis unavailable, using in-process cache", zap.Error(err))
		cacheRepo = repository.NewMemoryCacheRepository(cfg.Timetable.CacheTTL)
	case redisClient != nil:
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		readiness = append(readiness, handler.ReadinessCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	default:
		cacheRepo = repository.NewMemoryCacheRepository(cfg.Timetable.CacheTTL)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Timetable.CacheTTL, logr, true)

	validate := validator.New()
	catalogRepo := repository.NewCatalogRepository(db)
	entryRepo := repository.NewTimetableEntryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notifyQueue := jobs.NewQueue("timetable-notifications",
		service.NotificationJobHandler(service.NewLogDispatcher(logr)),
		jobs.QueueConfig{
			Workers:    cfg.Notifications.Workers,
			MaxRetries: cfg.Notifications.Retries,
			Logger:     logr,
			DeadLetter: func(job jobs.Job, err error) {
				logr.Error("notification dropped", zap.String("job_id", job.ID), zap.Error(err))
			},
		})
	notifyQueue.Start(ctx)
	defer notifyQueue.Stop()

	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	generatorSvc := service.NewTimetableGeneratorService(catalogRepo, entryRepo, entryRepo, cacheSvc, metricsSvc, cfg.Scheduler, logr)
	timetableSvc := service.NewTimetableService(catalogRepo, entryRepo, cacheSvc, validate, logr)
	publishSvc := service.NewPublishService(entryRepo, notificationRepo, entryRepo, notifyQueue, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, logr)

	timetableHandler := handler.NewTimetableHandler(generatorSvc, timetableSvc, publishSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, readiness...)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	public := r.Group(cfg.APIPrefix)
	public.GET("/timetable/public", timetableHandler.PublicGrid)

	adminOnly := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)
	api := r.Group(cfg.APIPrefix, internalmiddleware.JWT(authSvc))
	api.GET("/notifications", notificationHandler.List)
	timetable := api.Group("/timetable")
	timetable.GET("", timetableHandler.Grid)
	timetable.GET("/report", timetableHandler.Report)
	timetable.GET("/utilization", timetableHandler.Utilization)
	timetable.GET("/sections/:id/export", timetableHandler.Export)
	timetable.GET("/faculty/me", timetableHandler.MyFacultyDashboard)
	timetable.GET("/faculty/:id", adminOnly, timetableHandler.FacultyDashboard)
	timetable.POST("/generate", adminOnly, timetableHandler.Generate)
	timetable.POST("/publish", adminOnly, timetableHandler.Publish)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

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
