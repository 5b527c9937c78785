package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-receipt/internal/api"
	"ai-receipt/internal/api/handlers"
	"ai-receipt/internal/gemini"
	"ai-receipt/internal/repository"
	"ai-receipt/internal/service"
	"ai-receipt/pkg/auth"
	"ai-receipt/pkg/config"
	"ai-receipt/pkg/logger"
	"ai-receipt/pkg/postgres"
	"ai-receipt/pkg/storage"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// @title AI Receipt API
// @version 1.0
// @description Receipt image parsing, editing, spending stats and user profiles

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting ai-receipt service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	applied, err := postgres.Migrate(ctx, db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	appLogger.Info("Schema up to date", zap.Int("applied", applied))

	store := repository.NewStore(db, logger.Component("repository"))

	// Object storage
	s3Client, err := storage.NewS3Client(ctx, &cfg.Storage)
	if err != nil {
		appLogger.Fatal("Failed to initialize S3 client", zap.Error(err))
	}
	blobs := storage.NewS3Store(s3Client, logger.Component("storage"))

	// Vision model; parsing answers 503 until a key is set
	model, err := gemini.NewClient(ctx, &cfg.Gemini, logger.Component("gemini"))
	if err != nil {
		appLogger.Fatal("Failed to initialize Gemini client", zap.Error(err))
	}
	if !model.Configured() {
		appLogger.Warn("GEMINI_API_KEY is not set, receipt parsing is disabled")
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)

	// Initialize services
	bucket := cfg.Storage.Bucket
	parsingService := service.NewParsingService(store, blobs, model, bucket, logger.Component("parsing"))
	receiptService := service.NewReceiptService(store, logger.Component("receipts"))
	statsService := service.NewStatsService(store, logger.Component("stats"))
	deletionService := service.NewDeletionService(store, blobs, bucket, logger.Component("deletion"))
	imageService := service.NewImageService(store, blobs, bucket, logger.Component("images"))
	userService := service.NewUserService(store, logger.Component("users"))

	// Initialize handlers
	validate := validator.New()
	h := api.Handlers{
		Receipt: handlers.NewReceiptHandler(parsingService, receiptService, statsService, deletionService, validate, appLogger),
		Image:   handlers.NewImageHandler(imageService, appLogger),
		User:    handlers.NewUserHandler(userService, validate, appLogger),
		Health:  handlers.NewHealthHandler(db, appLogger),
	}

	// Setup router
	app := api.SetupRouter(h, jwtManager, cfg, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
