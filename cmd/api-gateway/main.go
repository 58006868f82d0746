package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tutor-schedule-api/api/swagger"
	"github.com/noah-isme/tutor-schedule-api/internal/handler"
	internalmiddleware "github.com/noah-isme/tutor-schedule-api/internal/middleware"
	"github.com/noah-isme/tutor-schedule-api/internal/models"
	"github.com/noah-isme/tutor-schedule-api/internal/repository"
	"github.com/noah-isme/tutor-schedule-api/internal/service"
	"github.com/noah-isme/tutor-schedule-api/pkg/cache"
	"github.com/noah-isme/tutor-schedule-api/pkg/config"
	"github.com/noah-isme/tutor-schedule-api/pkg/database"
	"github.com/noah-isme/tutor-schedule-api/pkg/export"
	"github.com/noah-isme/tutor-schedule-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tutor-schedule-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tutor-schedule-api/pkg/middleware/requestid"
)

// @title Tutor Schedule API
// @version 1.0.0
// @description Weekly lesson schedule with spreadsheet import
// @BasePath /api/v1
// @schemes http
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

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	db, err := database.NewPostgres(startCtx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(startCtx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Import.GridCacheTTL, logr, cfg.Import.CacheEnabled && cacheRepo != nil)

	source, err := newGridSource(startCtx, cfg.Import, metricsSvc, logr)
	if err != nil {
		logr.Sugar().Fatalw("sheet source init failed", "error", err)
	}

	validate := validator.New()

	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	aliasRepo := repository.NewNameAliasRepository(db)
	slotRepo := repository.NewScheduleSlotRepository(db)

	directory := service.NewDirectoryLoader(teacherRepo, studentRepo, groupRepo, aliasRepo)
	booker := service.NewSlotBooker(slotRepo, metricsSvc, logr)

	pdfOpts := []export.PDFOption{export.WithLandscape()}
	if cfg.Import.PDFFontPath != "" {
		pdfOpts = append(pdfOpts, export.WithUTF8Font(cfg.Import.PDFFontPath))
	}

	importSvc := service.NewScheduleImportService(source, directory, booker, aliasRepo, cacheSvc, metricsSvc, validate, logr,
		service.ScheduleImportConfig{
			ProposalTTL:  cfg.Import.ProposalTTL,
			GridCacheTTL: cfg.Import.GridCacheTTL,
			TimeSlots:    cfg.Import.TimeSlots,
		},
		export.NewCSVExporter(export.WithBOM()),
		export.NewPDFExporter(pdfOpts...),
	)
	scheduleSvc := service.NewScheduleService(slotRepo, booker, directory, cacheSvc, validate, logr, cfg.Import.TimeSlots)
	aliasSvc := service.NewNameAliasService(aliasRepo, directory, validate, logr)
	tokenSvc := service.NewTokenService(service.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	})

	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.Pinger{"postgres": db})
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	importHandler := handler.NewScheduleImportHandler(importSvc, cfg.Import.MaxUploadSize)
	aliasHandler := handler.NewNameAliasHandler(aliasSvc)

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

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(tokenSvc))
	api.Use(internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))

	api.GET("/metrics/summary", metricsHandler.Snapshot)

	api.GET("/schedule", scheduleHandler.List)
	api.POST("/schedule", scheduleHandler.Create)
	api.POST("/schedule/copy", scheduleHandler.CopyWeek)
	api.DELETE("/schedule/:id", scheduleHandler.Delete)

	api.POST("/schedule/import/preview", importHandler.Preview)
	api.POST("/schedule/import/upload", importHandler.PreviewUpload)
	api.POST("/schedule/import/commit", importHandler.Commit)
	api.POST("/schedule/import/confirm", importHandler.Confirm)
	api.GET("/schedule/import/proposals/:id/export", importHandler.Export)

	api.GET("/name-aliases", aliasHandler.List)
	api.POST("/name-aliases", aliasHandler.Upsert)

	addr := cfg.Addr()
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "sheet_source", source.Name())
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func newGridSource(ctx context.Context, cfg config.ImportConfig, metrics *service.MetricsService, logr *zap.Logger) (service.GridSource, error) {
	sourceCfg := service.SourceConfig{Timeout: cfg.FetchTimeout, RPS: cfg.FetchRPS, Burst: cfg.FetchBurst}
	if cfg.SheetsAPIKey != "" {
		return service.NewSheetsAPISource(ctx, cfg.SheetsAPIKey, sourceCfg, metrics)
	}
	return service.NewCSVExportSource(&http.Client{Timeout: cfg.FetchTimeout}, sourceCfg, metrics, logr), nil
}
