package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"ai-receipt/internal/models"
	"ai-receipt/internal/repository"
	"ai-receipt/pkg/auth"
	"ai-receipt/pkg/config"
	"ai-receipt/pkg/logger"
	"ai-receipt/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// seed applies the schema, ensures a development user exists and prints a
// bearer token for it.
func main() {
	username := flag.String("username", "demo", "username of the seeded user")
	email := flag.String("email", "demo@example.com", "email of the seeded user")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	// Connect to database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	appLogger.Info("Starting database seeding...")

	applied, err := postgres.Migrate(ctx, db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	user := &models.User{
		ID:       uuid.New(),
		Username: strings.TrimSpace(*username),
		Email:    strings.TrimSpace(*email),
	}
	if user.Username == "" || user.Email == "" {
		appLogger.Fatal("username and email are required")
	}

	store := repository.NewStore(db, appLogger)
	if err := store.Users().Upsert(ctx, user); err != nil {
		appLogger.Fatal("Failed to upsert user", zap.Error(err))
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)
	token, err := jwtManager.GenerateToken(user.ID.String(), user.Username, user.Email)
	if err != nil {
		appLogger.Fatal("Failed to issue token", zap.Error(err))
	}

	appLogger.Info("Database seeding completed successfully!",
		zap.Int("migrations_applied", applied),
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
	)
	fmt.Println(token)
}
