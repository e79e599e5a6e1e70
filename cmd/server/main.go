package main

import (
	"context"
	"fmt"
	"time"

	"github.com/abcdjack1/todolist/internal/config"
	"github.com/abcdjack1/todolist/internal/database"
	"github.com/abcdjack1/todolist/internal/handlers"
	"github.com/abcdjack1/todolist/internal/middleware"
	"github.com/abcdjack1/todolist/internal/repository"
	"github.com/abcdjack1/todolist/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run wires the server and blocks until it stops. Deferred cleanup runs
// before main exits on error.
func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Open the task store
	taskRepo, cleanup, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open task store: %w", err)
	}
	defer cleanup()

	// Cache the two list reads when Redis is configured
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("Redis unreachable; list cache will fall back to the store")
		}
		cancel()

		taskRepo = repository.NewCachedTaskRepository(taskRepo, rdb, cfg.CacheTTL, logger)
	}

	// Initialize service and handlers
	taskService := services.NewTaskService(taskRepo)
	taskHandler := handlers.NewTaskHandler(taskService, logger)

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	handlers.RegisterRoutes(r, cfg.APIVersion, taskHandler)

	// Start server
	logger.WithFields(log.Fields{
		"addr":   cfg.Addr(),
		"driver": cfg.StoreDriver,
	}).Info("Server starting")
	if err := r.Run(cfg.Addr()); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
// openStore connects to the configured driver, runs migrations and returns
// the repository plus a function that releases the connection.
func openStore(cfg *config.Config, logger *log.Logger) (repository.TaskRepository, func(), error) {
	if cfg.StoreDriver == config.DriverMongo {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.DBTimeout)
		defer cancel()

		client, coll, err := database.ConnectMongo(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := database.MigrateMongo(ctx, coll); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		cleanup := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.WithError(err).Warn("Failed to disconnect from mongo")
			}
		}
		return repository.NewMongoTaskRepository(coll), cleanup, nil
	}

	db, err := database.Connect(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db, logger); err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return repository.NewTaskRepository(db), cleanup, nil
}
