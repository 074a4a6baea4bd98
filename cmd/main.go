package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fractalschool/recsys-backend/internal/clients/redis"
	"github.com/fractalschool/recsys-backend/internal/db"
	"github.com/fractalschool/recsys-backend/internal/handlers"
	"github.com/fractalschool/recsys-backend/internal/logger"
	"github.com/fractalschool/recsys-backend/internal/middleware"
	"github.com/fractalschool/recsys-backend/internal/observability"
	"github.com/fractalschool/recsys-backend/internal/repos"
	"github.com/fractalschool/recsys-backend/internal/server"
	"github.com/fractalschool/recsys-backend/internal/services"
	"github.com/fractalschool/recsys-backend/internal/taskgen"
	"github.com/fractalschool/recsys-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Tracing
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "recsys-backend",
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})
	if shutdownOTel != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(shutdownCtx)
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsDuration("ACCESS_TOKEN_TTL", time.Hour, log)
	listenAddr := utils.GetEnv("LISTEN_ADDR", ":8080", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	taskSkillRepo := repos.NewTaskSkillRepo(thePG, log)
	skillMasteryRepo := repos.NewSkillMasteryRepo(thePG, log)
	typeMasteryRepo := repos.NewTypeMasteryRepo(thePG, log)
	assignmentRepo := repos.NewVariantAssignmentRepo(thePG, log)
	attemptRepo := repos.NewVariantAttemptRepo(thePG, log)
	taskAttemptRepo := repos.NewVariantTaskAttemptRepo(thePG, log)
	variantTaskRepo := repos.NewVariantTaskRepo(thePG, log)

	// Mastery cache: Redis when reachable, in-process otherwise.
	var masteryCache services.MasteryCache
	redisClient, err := redis.NewClient(ctx, log)
	if err != nil {
		log.Warn("Redis unavailable, mastery shaping state kept in memory", "error", err)
		masteryCache = services.NewMemoryMasteryCache()
	} else {
		defer redisClient.Close()
		masteryCache = redisClient
	}

	// Generators
	registry := taskgen.NewDefaultRegistry()

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(log, userRepo, jwtSecretKey, accessTokenTTL)
	masteryService := services.NewMasteryService(thePG, log, masteryCache, taskSkillRepo, skillMasteryRepo, typeMasteryRepo)
	variantService := services.NewVariantService(
		thePG,
		log,
		registry,
		assignmentRepo,
		attemptRepo,
		taskAttemptRepo,
		variantTaskRepo,
		userRepo,
		masteryService,
	)

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(log, authService)
	variantHandler := handlers.NewVariantHandler(log, variantService)
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		ServiceName:    "recsys-backend",
		AuthHandler:    authHandler,
		VariantHandler: variantHandler,
		AuthMiddleware: authMiddleware,
	})

	log.Info("Starting server", "addr", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
