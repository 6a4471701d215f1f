package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/election-survey-api/api/swagger"
	"github.com/noah-isme/election-survey-api/internal/handler"
	"github.com/noah-isme/election-survey-api/internal/middleware"
	"github.com/noah-isme/election-survey-api/internal/models"
	"github.com/noah-isme/election-survey-api/internal/repository"
	"github.com/noah-isme/election-survey-api/internal/service"
	"github.com/noah-isme/election-survey-api/pkg/cache"
	"github.com/noah-isme/election-survey-api/pkg/config"
	"github.com/noah-isme/election-survey-api/pkg/database"
	"github.com/noah-isme/election-survey-api/pkg/export"
	"github.com/noah-isme/election-survey-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/election-survey-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/election-survey-api/pkg/middleware/requestid"
)

// @title Election Survey API
// @version 1.0.0
// @description Field operations backend for electoral opinion surveys
// @BasePath /api
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, continuing without cache and token revocation", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	regionRepo := repository.NewRegionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	responseRepo := repository.NewResponseRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Reports.CacheTTL, logr, cfg.Reports.CacheEnabled && redisClient != nil)

	authCfg := service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	}
	var authSvc *service.AuthService
	if redisClient != nil {
		authSvc = service.NewAuthService(userRepo, cacheRepo, validate, logr, authCfg)
	} else {
		authSvc = service.NewAuthService(userRepo, nil, validate, logr, authCfg)
	}

	surveySvc := service.NewSurveyService(surveyRepo, cacheSvc, validate, logr)
	questionSvc := service.NewQuestionService(questionRepo, surveyRepo, validate, logr)
	regionSvc := service.NewRegionService(regionRepo, cacheSvc, validate, logr)
	assignmentSvc := service.NewAssignmentService(service.AssignmentServiceParams{
		Repo:      assignmentRepo,
		Surveys:   surveyRepo,
		Regions:   regionRepo,
		Users:     userRepo,
		Cache:     cacheSvc,
		Validator: validate,
		Logger:    logr,
	})
	responseSvc := service.NewResponseService(service.ResponseServiceParams{
		Repo:        responseRepo,
		Assignments: assignmentRepo,
		Questions:   questionRepo,
		Cache:       cacheSvc,
		Metrics:     metrics,
		Validator:   validate,
		Logger:      logr,
	})
	statsSvc := service.NewStatsService(statsRepo, metrics, cfg.Stats.Location(), logr)
	researcherSvc := service.NewResearcherService(userRepo)
	reportSvc := service.NewReportService(reportRepo, cacheSvc, metrics, cfg.Reports.CacheTTL, logr)
	exportSvc := service.NewExportService(reportSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	authHandler := handler.NewAuthHandler(authSvc)
	surveyHandler := handler.NewSurveyHandler(surveySvc, questionSvc)
	regionHandler := handler.NewRegionHandler(regionSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	responseHandler := handler.NewResponseHandler(responseSvc)
	researcherHandler := handler.NewResearcherHandler(researcherSvc)
	statsHandler := handler.NewStatsHandler(statsSvc)
	reportHandler := handler.NewReportHandler(reportSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metrics != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Docs.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	researcherOnly := middleware.RequireRoles(models.RoleResearcher)

	secured.POST("/logout", authHandler.Logout)
	secured.GET("/user", authHandler.Me)

	secured.GET("/surveys", surveyHandler.List)
	secured.GET("/surveys/:id", surveyHandler.Get)
	secured.GET("/surveys/:id/questions", surveyHandler.ListQuestions)
	secured.POST("/surveys", adminOnly, surveyHandler.Create)
	secured.PUT("/surveys/:id", adminOnly, surveyHandler.Update)
	secured.DELETE("/surveys/:id", adminOnly, surveyHandler.Delete)
	secured.POST("/surveys/:id/questions", adminOnly, surveyHandler.CreateQuestion)
	secured.PUT("/questions/:id", adminOnly, surveyHandler.UpdateQuestion)
	secured.DELETE("/questions/:id", adminOnly, surveyHandler.DeleteQuestion)

	secured.GET("/regions", regionHandler.List)
	secured.GET("/regions/:id", regionHandler.Get)
	secured.POST("/regions", adminOnly, regionHandler.Create)
	secured.PUT("/regions/:id", adminOnly, regionHandler.Update)
	secured.DELETE("/regions/:id", adminOnly, regionHandler.Delete)

	secured.GET("/assignments", assignmentHandler.List)
	secured.GET("/assignments/map", assignmentHandler.Map)
	secured.GET("/assignments/:id", assignmentHandler.Get)
	secured.POST("/assignments", adminOnly, assignmentHandler.Create)
	secured.PUT("/assignments/:id", adminOnly, assignmentHandler.Update)

	secured.GET("/responses", responseHandler.List)
	secured.POST("/responses", researcherOnly, responseHandler.Submit)
	secured.PUT("/responses/:id", researcherOnly, responseHandler.Update)

	secured.GET("/researchers", adminOnly, researcherHandler.List)
	secured.GET("/stats", statsHandler.Get)

	secured.GET("/reports/:type", adminOnly, reportHandler.Get)
	secured.GET("/reports/:type/download", adminOnly, reportHandler.Download)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
