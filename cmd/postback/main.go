package main

import (
	"log"

	"earnhub/internal/api"
	"earnhub/internal/repository"
	"earnhub/internal/service"
	"earnhub/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// The postback receiver runs as its own small process so the ad
// network callback stays up independently of the main API. It reads
// configuration from the environment only.
type Config struct {
	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`
	PostbackSecret string `envconfig:"POSTBACK_SECRET"`
	Port           string `envconfig:"PORT" default:"8081"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
}

func main() {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.NewFromURL(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	profileService := service.NewProfileService(repo, service.NewMultiplierHolder())

	router := gin.New()
	router.Use(gin.Recovery())

	api.NewPostbackRoutes(router, profileService, repo, cfg.PostbackSecret)

	zapLogger.Info("Starting postback receiver", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		zapLogger.Fatal("Failed to start postback receiver", zap.Error(err))
	}
}
