package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"earnhub/internal/api"
	"earnhub/internal/middleware"
	"earnhub/internal/repository"
	"earnhub/internal/service"
	"earnhub/internal/worker"
	"earnhub/pkg/auth"
	"earnhub/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

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

	holder := service.NewMultiplierHolder()
	hub := service.NewEventHub()

	profileService := service.NewProfileService(repo, holder)
	offerService := service.NewOfferService(repo, holder, hub)
	rewardService := service.NewRewardService(repo, hub)
	referralService := service.NewReferralService(repo)
	feedService := service.NewFeedService(service.FeedConfig{
		BaseURL: cfg.AdNetwork.BaseURL,
		APIKey:  cfg.AdNetwork.APIKey,
	})

	sessionAuth := auth.NewSessionAuth(cfg.Session.Secret, cfg.Session.DebugMode)
	authz := middleware.NewAuthorization(profileService)

	reconciler := worker.NewReconciler(repo, hub, cfg.Reconcile.Interval, cfg.Reconcile.Grace)
	if err := reconciler.Start(); err != nil {
		zapLogger.Fatal("Failed to start reconciler", zap.Error(err))
	}
	defer reconciler.Stop()

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

	a := router.Group("/api/v1")
	api.NewProfileRoutes(a, profileService, referralService, sessionAuth)
	api.NewOfferRoutes(a, offerService, feedService, sessionAuth)
	api.NewRewardRoutes(a, rewardService, sessionAuth, authz)
	api.NewEventRoutes(a, hub, sessionAuth)

	api.NewPostbackRoutes(router, profileService, repo, cfg.AdNetwork.PostbackSecret)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
