package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"docsmith-worker/internal/api"
	"docsmith-worker/internal/cache"
	"docsmith-worker/internal/config"
	"docsmith-worker/internal/database"
	"docsmith-worker/internal/generator"
	"docsmith-worker/internal/jobs"
	"docsmith-worker/internal/storage"
	"docsmith-worker/internal/worker"

	"github.com/lpernett/godotenv"
)

// @title Docsmith Worker API
// @version 1.0.0
// @description Asynchronous document generation service
// @BasePath /api/v1
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	// Load configuration
	cfg := config.Load()

	// Initialize artifact storage
	storageBackend, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}
	artifactService := storage.NewArtifactService(storageBackend)

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Initialize services
	jobRepo := jobs.NewJobRepository(db.DB)
	jobService := jobs.NewJobServiceImpl(jobRepo)

	// Optional terminal-status cache
	var statusCache cache.StatusCache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Fatal("Failed to initialize redis cache:", err)
		}
		statusCache = redisCache
		log.Println("Status cache: redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start processor pool
	genClient := generator.NewClient(cfg.GeneratorURL)
	processor := worker.NewJobProcessor(jobService, artifactService, genClient, cfg.GenerationTimeout)
	pool := worker.NewProcessorPool(jobService, processor, &worker.PoolConfig{
		ProcessorCount: cfg.ProcessorCount,
		PollInterval:   cfg.PollInterval,
	})
	if err := pool.Start(ctx); err != nil {
		log.Fatal("Failed to start processor pool:", err)
	}

	// Start retention sweeper
	sweeper := jobs.NewRetentionSweeper(jobService, statusCache, cfg.CleanupInterval, cfg.RetentionSweepGap, cfg.JobRetention)
	go sweeper.Start(ctx)

	// Setup router
	router := api.SetupRouter(jobService, pool, artifactService, statusCache)

	log.Printf("Starting docsmith-worker on port %s", cfg.Port)
	log.Printf("Generator endpoint: %s", cfg.GeneratorURL)
	log.Printf("Storage type: %s", cfg.Storage.Type)
	if cfg.Storage.Type == "filesystem" {
		log.Printf("Storage path: %s", cfg.Storage.BasePath)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- router.Run(":" + cfg.Port)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatal("Server failed to start:", err)
	case sig := <-quit:
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
		if err := pool.Stop(); err != nil {
			log.Printf("Processor pool shutdown error: %v", err)
		}
		log.Println("Server shutdown complete")
	}
}
