package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/All-Khwarizmi/nature-quest/internal/api"
	"github.com/All-Khwarizmi/nature-quest/internal/middleware"
	"github.com/All-Khwarizmi/nature-quest/internal/repository"
	"github.com/All-Khwarizmi/nature-quest/internal/reward"
	"github.com/All-Khwarizmi/nature-quest/internal/service"
	"github.com/All-Khwarizmi/nature-quest/internal/worker"
	"github.com/All-Khwarizmi/nature-quest/pkg/auth"
	"github.com/All-Khwarizmi/nature-quest/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	onboardingQuestID, err := uuid.Parse(cfg.Quest.OnboardingQuestID)
	if err != nil {
		zapLogger.Fatal("Invalid onboarding quest id", zap.Error(err))
	}

	gateway, err := reward.NewTokenGateway(cfg.Chain)
	if err != nil {
		zapLogger.Fatal("Failed to initialize reward gateway", zap.Error(err))
	}

	userService := service.NewUserService(repo)
	questService := service.NewQuestService(repo)
	validator := service.NewValidator(service.KeywordMatcher{}, onboardingQuestID)
	stateService := service.NewQuestStateService(repo, repo)
	submissionService := service.NewSubmissionService(repo, repo, repo, validator, stateService, gateway)
	generator := service.NewQuestGenerator(repo)

	questGenWorker, err := worker.NewQuestGenWorker(generator, cfg.Quest.GenerateInterval)
	if err != nil {
		zapLogger.Fatal("Failed to initialize quest generation worker", zap.Error(err))
	}
	if err := questGenWorker.Start(); err != nil {
		zapLogger.Fatal("Failed to start quest generation worker", zap.Error(err))
	}
	defer questGenWorker.Stop()

	walletAuth := auth.NewWalletAuth(cfg.Auth.AdminAddresses, cfg.Auth.DebugMode)

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	middleware.InitPrometheus()
	router.Use(middleware.Monitor())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rateLimiter := middleware.NewRateLimiter(5, 30)

	a := router.Group("/api/v1")
	a.Use(rateLimiter.Middleware())
	api.NewUserRoutes(a, userService, walletAuth)
	api.NewQuestRoutes(a, questService, generator, walletAuth)
	api.NewSubmissionRoutes(a, submissionService, walletAuth, cfg.Quest.ProcessTimeout)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
