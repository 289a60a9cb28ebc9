// Package main is the entry point for the merchant backend.
// It loads configuration, connects the database, cache, event broker and
// document store, mounts the routes and serves HTTP until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sitex/internal/config"
	"sitex/internal/repositories"
	"sitex/internal/repositories/cache"
	"sitex/internal/routes"
	"sitex/internal/services/documents"
	"sitex/internal/services/events"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	redisstore "github.com/gofiber/storage/redis"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	ctx := context.Background()

	db, err := repositories.InitDB(cfg.DB)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get database instance: %v", err)
	}
	defer sqlDB.Close()

	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			stats := sqlDB.Stats()
			log.Infof("db stats: open=%d idle=%d in_use=%d wait_count=%d wait_duration=%s",
				stats.OpenConnections, stats.Idle, stats.InUse, stats.WaitCount, stats.WaitDuration)
		}
	}()

	cacheService := cache.Connect(ctx, cfg.Redis, config.GetDurationEnv("CACHE_TTL", 10*time.Minute))
	if cacheService != nil {
		defer cacheService.Close()
	}

	publisher, err := events.New(cfg.KafkaBrokers)
	if err != nil {
		log.Fatalf("failed to connect to kafka: %v", err)
	}
	defer publisher.Close()

	store, err := documents.New(ctx, cfg.Documents)
	if err != nil {
		log.Fatalf("failed to initialize document store: %v", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app, routes.Deps{
		Config:         cfg,
		DB:             db,
		Cache:          cacheService,
		Publisher:      publisher,
		Documents:      store,
		LimiterStorage: limiterStorage(cfg.Redis, cacheService != nil),
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}

// limiterStorage keeps rate-limit counters in their own Redis database when
// Redis is reachable. A nil storage makes the limiter count in memory.
func limiterStorage(cfg config.RedisConfig, redisUp bool) fiber.Storage {
	if !redisUp {
		return nil
	}
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		log.Warnf("invalid REDIS_PORT %q, rate limits kept in memory", cfg.Port)
		return nil
	}
	return redisstore.New(redisstore.Config{
		Host:     cfg.Host,
		Port:     port,
		Password: cfg.Password,
		Database: cfg.LimiterDB,
	})
}
