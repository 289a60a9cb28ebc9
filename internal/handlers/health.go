package handlers

import (
	"sitex/internal/repositories/cache"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	cache *cache.CacheService
}

func NewHealthHandler(db *gorm.DB, cacheService *cache.CacheService) *HealthHandler {
	return &HealthHandler{db: db, cache: cacheService}
}

func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	database := "connected"
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		database = "unavailable"
	}
	redisStatus := "disabled"
	if h.cache != nil {
		redisStatus = "connected"
		if err := h.cache.HealthCheck(c.UserContext()); err != nil {
			redisStatus = "unavailable"
		}
	}

	status := fiber.StatusOK
	if database != "connected" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"status": database,
		"services": fiber.Map{
			"database": database,
			"redis":    redisStatus,
		},
	})
}

func (h *HealthHandler) CacheStats(c *fiber.Ctx) error {
	stats := h.cache.GetStats()
	if stats == nil {
		return c.JSON(fiber.Map{"pool_stats": nil})
	}
	return c.JSON(fiber.Map{
		"pool_stats": fiber.Map{
			"hits":        stats.Hits,
			"misses":      stats.Misses,
			"timeouts":    stats.Timeouts,
			"total_conns": stats.TotalConns,
			"idle_conns":  stats.IdleConns,
			"stale_conns": stats.StaleConns,
		},
	})
}
