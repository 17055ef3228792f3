package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/tu-admissions/intake-api/api/swagger"
	"github.com/tu-admissions/intake-api/internal/handler"
	"github.com/tu-admissions/intake-api/internal/intake"
	"github.com/tu-admissions/intake-api/internal/middleware"
	"github.com/tu-admissions/intake-api/internal/repository"
	"github.com/tu-admissions/intake-api/internal/service"
	"github.com/tu-admissions/intake-api/pkg/cache"
	"github.com/tu-admissions/intake-api/pkg/config"
	"github.com/tu-admissions/intake-api/pkg/database"
	"github.com/tu-admissions/intake-api/pkg/drive"
	appErrors "github.com/tu-admissions/intake-api/pkg/errors"
	"github.com/tu-admissions/intake-api/pkg/logger"
	corsmiddleware "github.com/tu-admissions/intake-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tu-admissions/intake-api/pkg/middleware/requestid"
	"github.com/tu-admissions/intake-api/pkg/response"
	"github.com/tu-admissions/intake-api/pkg/sheets"
	"github.com/tu-admissions/intake-api/pkg/storage"
)

// @title Transcript Intake API
// @version 1.0.0
// @description Student application intake: document upload to Drive and submission tracking in Sheets
// @BasePath /api/v1
// @schemes http https

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

	ctx := context.Background()

	driveClient, err := drive.NewClient(ctx, cfg.Google.CredentialsFile, cfg.Google.DriveFolderID)
	if err != nil {
		logr.Sugar().Fatalw("failed to init drive client", "error", err)
	}
	sheetsClient, err := sheets.NewClient(ctx, cfg.Google.CredentialsFile, cfg.Google.SpreadsheetID, cfg.Google.SheetName)
	if err != nil {
		logr.Sugar().Fatalw("failed to init sheets client", "error", err)
	}

	spool, err := storage.NewSpool(cfg.Uploads.SpoolDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload spool", "error", err)
	}

	var folderCache *service.RedisFolderCache
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		folderCache = service.NewRedisFolderCache(redisClient, cfg.Redis.FolderTTL)
	}

	var submissionRepo *repository.SubmissionRepository
	if cfg.Mirror.Enabled {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to database", "error", err)
		}
		submissionRepo = repository.NewSubmissionRepository(db)
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	parser := intake.NewParser(spool, cfg.Uploads, logr)
	submissionSvc := newSubmissionService(driveClient, sheetsClient, spool, folderCache, submissionRepo, metricsSvc, logr, cfg)
	authSvc := service.NewAuthService(validate, logr, cfg.Auth)

	submissionHandler := handler.NewSubmissionHandler(parser, submissionSvc, metricsSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	var adminHandler *handler.AdminHandler
	if submissionRepo != nil {
		exportSvc := service.NewExportService(submissionRepo, logr)
		adminHandler = handler.NewAdminHandler(submissionRepo, exportSvc)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.NoMethod(func(c *gin.Context) {
		response.Error(c, appErrors.ErrMethodNotAllowed)
	})

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/submissions", submissionHandler.Submit)
	api.POST("/auth/login", authHandler.Login)

	if adminHandler != nil {
		staff := api.Group("", middleware.JWT(authSvc))
		staff.GET("/submissions", adminHandler.List)
		staff.GET("/submissions/export", adminHandler.Export)
	}

	go runSpoolJanitor(spool, cfg.Uploads, logr)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func newSubmissionService(driveClient *drive.Client, sheetsClient *sheets.Client, spool *storage.Spool, folderCache *service.RedisFolderCache, repo *repository.SubmissionRepository, metrics *service.MetricsService, logr *zap.Logger, cfg *config.Config) *service.SubmissionService {
	svcCfg := service.SubmissionServiceConfig{CallTimeout: cfg.Google.CallTimeout}
	// Typed nils must not reach the interface fields.
	if folderCache == nil && repo == nil {
		return service.NewSubmissionService(driveClient, sheetsClient, spool, nil, nil, metrics, logr, svcCfg)
	}
	if folderCache == nil {
		return service.NewSubmissionService(driveClient, sheetsClient, spool, nil, repo, metrics, logr, svcCfg)
	}
	if repo == nil {
		return service.NewSubmissionService(driveClient, sheetsClient, spool, folderCache, nil, metrics, logr, svcCfg)
	}
	return service.NewSubmissionService(driveClient, sheetsClient, spool, folderCache, repo, metrics, logr, svcCfg)
}

// runSpoolJanitor periodically removes spool files orphaned by crashed
// requests. Live requests clean up after themselves well inside the TTL.
func runSpoolJanitor(spool *storage.Spool, cfg config.UploadsConfig, logr *zap.Logger) {
	interval := cfg.JanitorInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		deleted, err := spool.CleanupOlderThan(cfg.SpoolTTL)
		if err != nil {
			logr.Warn("spool janitor sweep failed", zap.Error(err))
			continue
		}
		if len(deleted) > 0 {
			logr.Info("spool janitor removed orphaned files", zap.Int("count", len(deleted)))
		}
	}
}
