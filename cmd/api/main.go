package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Silk760/course-withdrawal/api/swagger"
	"github.com/Silk760/course-withdrawal/internal/eligibility"
	"github.com/Silk760/course-withdrawal/internal/handler"
	"github.com/Silk760/course-withdrawal/internal/middleware"
	"github.com/Silk760/course-withdrawal/internal/repository"
	"github.com/Silk760/course-withdrawal/internal/service"
	"github.com/Silk760/course-withdrawal/internal/transcript"
	"github.com/Silk760/course-withdrawal/pkg/cache"
	"github.com/Silk760/course-withdrawal/pkg/config"
	"github.com/Silk760/course-withdrawal/pkg/database"
	"github.com/Silk760/course-withdrawal/pkg/export"
	"github.com/Silk760/course-withdrawal/pkg/logger"
	corsmiddleware "github.com/Silk760/course-withdrawal/pkg/middleware/cors"
	reqidmiddleware "github.com/Silk760/course-withdrawal/pkg/middleware/requestid"
	"github.com/Silk760/course-withdrawal/pkg/storage"
)

// @title Course Withdrawal API
// @version 1.0.0
// @description Transcript-based eligibility checks for course withdrawal requests
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, stats caching disabled", "error", err)
		redisClient = nil
	}

	documents, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	reportFiles, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}

	validate := validator.New()

	students := repository.NewStudentRepository(db)
	requests := repository.NewWithdrawalRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	parser := transcript.NewParser(transcript.Policy{
		ReferenceHijriYear:        cfg.Policy.ReferenceHijriYear,
		GraduationCreditThreshold: cfg.Policy.GraduationCreditThreshold,
	}, logr)
	evaluator := eligibility.NewEvaluator(eligibility.Limits{
		Bachelor:            cfg.Policy.MaxWithdrawalsBachelor,
		IntermediateDiploma: cfg.Policy.MaxWithdrawalsIntermediateDiploma,
		AssociateDiploma:    cfg.Policy.MaxWithdrawalsAssociateDiploma,
	})

	metricsSvc := service.NewMetricsService()
	authSvc, err := service.NewAuthService(validate, logr, service.AuthConfig{
		AdminEmail:    cfg.Admin.Email,
		AdminPassword: cfg.Admin.Password,
		TokenSecret:   cfg.JWT.Secret,
		TokenExpiry:   cfg.JWT.Expiration,
		Issuer:        cfg.JWT.Issuer,
	})
	if err != nil {
		logr.Sugar().Fatalw("failed to init auth service", "error", err)
	}

	withdrawalSvc := service.NewWithdrawalService(
		students, requests, documents,
		&transcript.PlainTextExtractor{},
		parser, evaluator, metricsSvc, validate, logr,
	)

	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)
	adminSvc := service.NewAdminService(requests, students, cacheRepo, documents, signer, export.NewCSVExporter(), metricsSvc, logr, cfg.Stats.CacheTTL)

	reportSvc := service.NewReportService(requests, reportFiles, export.NewPDFExporter(), logr, cfg.Reports.WorkerConcurrency, cfg.Reports.WorkerRetries)
	if cfg.Reports.Enabled {
		reportSvc.Start(context.Background())
		defer reportSvc.Stop()

		if ttl := cfg.Reports.ResultTTL; ttl > 0 {
			cleanup := time.NewTicker(ttl / 4)
			defer cleanup.Stop()
			go func() {
				for range cleanup.C {
					reportSvc.CleanupExpired(ttl)
				}
			}()
		}
	}

	authHandler := handler.NewAuthHandler(authSvc)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalSvc)
	adminHandler := handler.NewAdminHandler(adminSvc, reportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)

		api.POST("/requests", withdrawalHandler.Submit)
		api.GET("/requests/:id", withdrawalHandler.Status)

		api.GET("/admin/documents", adminHandler.DownloadDocument)

		admin := api.Group("/admin", middleware.JWT(authSvc))
		{
			admin.GET("/requests", adminHandler.List)
			admin.GET("/requests/stats", adminHandler.Stats)
			admin.GET("/requests/export", adminHandler.Export)
			admin.GET("/requests/:id", adminHandler.Detail)
			admin.PATCH("/requests/:id/status", adminHandler.UpdateStatus)
			admin.GET("/requests/:id/documents", adminHandler.GrantDocument)
			admin.POST("/requests/:id/report", adminHandler.CreateReport)
			admin.GET("/reports/:jobId", adminHandler.ReportStatus)
			admin.GET("/reports/:jobId/download", adminHandler.DownloadReport)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
