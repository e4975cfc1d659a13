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

	_ "github.com/skillpath-labs/skillpath-api/api/swagger"
	"github.com/skillpath-labs/skillpath-api/internal/handler"
	"github.com/skillpath-labs/skillpath-api/internal/middleware"
	"github.com/skillpath-labs/skillpath-api/internal/repository"
	"github.com/skillpath-labs/skillpath-api/internal/service"
	"github.com/skillpath-labs/skillpath-api/internal/token"
	"github.com/skillpath-labs/skillpath-api/pkg/cache"
	"github.com/skillpath-labs/skillpath-api/pkg/config"
	"github.com/skillpath-labs/skillpath-api/pkg/database"
	appErrors "github.com/skillpath-labs/skillpath-api/pkg/errors"
	"github.com/skillpath-labs/skillpath-api/pkg/export"
	"github.com/skillpath-labs/skillpath-api/pkg/logger"
	corsmiddleware "github.com/skillpath-labs/skillpath-api/pkg/middleware/cors"
	ratelimitmiddleware "github.com/skillpath-labs/skillpath-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/skillpath-labs/skillpath-api/pkg/middleware/requestid"
	"github.com/skillpath-labs/skillpath-api/pkg/response"
)

// @title SkillPath API
// @version 1.0.0
// @description Authentication gateway and career-path prompt proxy
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient)
	codec := token.NewCodec(cfg.JWT)

	authService := service.NewAuthService(userRepo, sessionRepo, codec, validate, logr, metrics)
	userService := service.NewUserService(userRepo, logr)
	aiService := service.NewAIService(cfg.OpenAI, cfg.Prompts, validate, logr, metrics)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	aiHandler := handler.NewAIHandler(aiService, export.NewPDFExporter())
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	limiter := ratelimitmiddleware.New(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	r.Use(limiter.Middleware())

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	authRequired := middleware.Auth(sessionRepo, codec)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.POST("/refresh-token", authHandler.Refresh)
		auth.POST("/logout", authRequired, authHandler.Logout)
		auth.GET("/me", authRequired, authHandler.Me)
	}

	users := api.Group("/users", authRequired)
	{
		users.GET("", userHandler.List)
	}

	ai := api.Group("/ai", authRequired)
	{
		ai.GET("/industries", aiHandler.Industries)
		ai.POST("/job-roles", aiHandler.JobRoles)
		ai.POST("/skillset", aiHandler.Skillset)
		ai.POST("/quiz", aiHandler.Quiz)
		ai.POST("/quiz/evaluate", aiHandler.EvaluateQuiz)
		ai.POST("/platforms", aiHandler.Platforms)
		ai.POST("/learning-path", aiHandler.LearningPath)
		ai.POST("/learning-path/export", aiHandler.ExportLearningPath)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
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
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
