package cache

import (
	"context"
	"fmt"
	"time"

	"sitex/internal/config"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a pooled client for the configured Redis instance.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     config.GetIntEnv("REDIS_POOL_SIZE", 10),
		MinIdleConns: config.GetIntEnv("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// Connect returns a CacheService when Redis answers a ping and nil otherwise,
// in which case callers run without a cache.
func Connect(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) *CacheService {
	client := NewRedisClient(cfg)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warnf("redis unavailable at %s:%s, caching disabled: %v", cfg.Host, cfg.Port, err)
		_ = client.Close()
		return nil
	}
	log.Infof("redis connected at %s:%s db=%d", cfg.Host, cfg.Port, cfg.DB)
	return NewCacheService(client, ttl)
}

// HealthCheck pings Redis.
func (s *CacheService) HealthCheck(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// GetStats returns the client pool statistics.
func (s *CacheService) GetStats() *redis.PoolStats {
	if s == nil {
		return nil
	}
	return s.client.PoolStats()
}
