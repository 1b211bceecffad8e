package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/brandforge/brandforge-backend/internal/data/repos"
	"github.com/brandforge/brandforge-backend/internal/db"
	"github.com/brandforge/brandforge-backend/internal/handlers"
	"github.com/brandforge/brandforge-backend/internal/modules/repository"
	"github.com/brandforge/brandforge-backend/internal/platform/cache"
	"github.com/brandforge/brandforge-backend/internal/platform/config"
	"github.com/brandforge/brandforge-backend/internal/platform/envutil"
	"github.com/brandforge/brandforge-backend/internal/platform/logger"
	"github.com/brandforge/brandforge-backend/internal/platform/openai"
	"github.com/brandforge/brandforge-backend/internal/server"
)

func main() {
	// Logger
	logMode := envutil.Str("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg, err := config.Load(envutil.Str("REPO_CONFIG_PATH", ""))
	if err != nil {
		log.Error("Config load failed", "error", err)
		os.Exit(1)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	brandRepo := repos.NewBrandRepo(thePG, log)
	chunkRepo := repos.NewChunkRepo(thePG, log)
	clusterRepo := repos.NewClusterRepo(thePG, log)
	conflictRepo := repos.NewConflictRepo(thePG, log)

	// Classification cache: redis when configured, in-process otherwise
	var classifyCache cache.Cache = cache.NewMemory()
	if redisURL := envutil.Str("REDIS_URL", ""); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Error("Invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		classifyCache = cache.NewRedis(redis.NewClient(opts), "")
		log.Info("Classification cache backed by redis")
	}

	// OpenAI
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("Could not init OpenAI client", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up services...")
	chunker, err := repository.NewChunker(cfg.Chunker)
	if err != nil {
		log.Error("Could not init chunker", "error", err)
		os.Exit(1)
	}
	classifier := repository.NewClassifierService(log, openaiClient, classifyCache, cfg.Classifier.BatchSize)
	embedder := repository.NewEmbedderService(log, openaiClient, cfg.Embedder.Dimensions, cfg.Embedder.MaxBatch)
	grounding := repository.NewGroundingService(log, chunkRepo, embedder, cfg)
	review := repository.NewReviewService(thePG, log, chunkRepo, clusterRepo, conflictRepo)

	ingestDeps := repository.IngestDeps{
		DB:         thePG,
		Log:        log,
		Brands:     brandRepo,
		Chunks:     chunkRepo,
		Clusters:   clusterRepo,
		Chunker:    chunker,
		Classifier: classifier,
		Embedder:   embedder,
		Config:     cfg,
	}

	// Handlers
	log.Info("Setting up handlers...")
	brandHandler := handlers.NewBrandHandler(log, brandRepo)
	repositoryHandler := handlers.NewRepositoryHandler(log, ingestDeps, grounding)
	reviewHandler := handlers.NewReviewHandler(log, review)

	// Router
	var origins []string
	if raw := envutil.Str("CORS_ALLOW_ORIGINS", ""); raw != "" {
		origins = strings.Split(raw, ",")
	}
	router := server.NewRouter(server.RouterConfig{
		BrandHandler:      brandHandler,
		RepositoryHandler: repositoryHandler,
		ReviewHandler:     reviewHandler,
		AllowOrigins:      origins,
	})

	port := envutil.Str("PORT", "8080")
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
