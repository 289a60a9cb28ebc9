// Package cache wraps Redis with typed helpers for users and merchant access snapshots.
// A nil *CacheService is valid and behaves as an always-missing cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sitex/internal/models"

	"github.com/redis/go-redis/v9"
)

// MerchantAccessTTL bounds how long the gate trusts a snapshot.
const MerchantAccessTTL = time.Minute

// generationTTL outlives any in-flight read-through fill.
const generationTTL = 24 * time.Hour

// fillScript stores ARGV[2] under KEYS[1] only while the generation in KEYS[2]
// still equals ARGV[1].
var fillScript = redis.NewScript(`
if (redis.call("GET", KEYS[2]) or "0") ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if s == nil {
		return false, nil
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func generationKey(key string) string {
	return key + ":gen"
}

// Generation returns the invalidation counter of key. Read it before loading
// the value from the database and hand it to Fill.
func (s *CacheService) Generation(ctx context.Context, key string) (string, error) {
	if s == nil {
		return "0", nil
	}
	gen, err := s.client.Get(ctx, generationKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

// Fill stores value unless key was invalidated after gen was read. It reports
// whether the value was stored.
func (s *CacheService) Fill(ctx context.Context, key, gen string, value interface{}, ttl time.Duration) (bool, error) {
	if s == nil {
		return false, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal cache value: %w", err)
	}
	stored, err := fillScript.Run(ctx, s.client, []string{key, generationKey(key)}, gen, data, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to fill cache value: %w", err)
	}
	return stored == 1, nil
}

// Invalidate deletes key and bumps its generation so that fills which loaded
// their value before this call are dropped.
func (s *CacheService) Invalidate(ctx context.Context, key string) error {
	if s == nil {
		return nil
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.Incr(ctx, generationKey(key))
	pipe.Expire(ctx, generationKey(key), generationTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Key generation
func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// User caching
type cachedUser struct {
	ID           uint           `json:"id"`
	Username     string         `json:"username"`
	Email        string         `json:"email"`
	FullName     string         `json:"full_name"`
	Roles        models.RoleSet `json:"roles"`
	TokenVersion int            `json:"token_version"`
}

func (s *CacheService) userKey(userID uint) string {
	return s.GenerateKey("user", "id", userID)
}

func (s *CacheService) UserGeneration(ctx context.Context, userID uint) (string, error) {
	return s.Generation(ctx, s.userKey(userID))
}

// CacheUser stores user unless it was invalidated after gen was read.
func (s *CacheService) CacheUser(ctx context.Context, gen string, user *models.User) error {
	if user == nil {
		return errors.New("cannot cache nil user")
	}
	_, err := s.Fill(ctx, s.userKey(user.ID), gen, cachedUser{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FullName:     user.FullName,
		Roles:        user.Roles,
		TokenVersion: user.TokenVersion,
	}, s.ttl)
	return err
}

// GetUser returns the cached user or (nil, nil) on a miss.
func (s *CacheService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var cu cachedUser
	found, err := s.Get(ctx, s.userKey(userID), &cu)
	if err != nil || !found {
		return nil, err
	}
	u := &models.User{
		Username:     cu.Username,
		Email:        cu.Email,
		FullName:     cu.FullName,
		Roles:        cu.Roles,
		TokenVersion: cu.TokenVersion,
	}
	u.ID = cu.ID
	return u, nil
}

func (s *CacheService) InvalidateUser(ctx context.Context, userID uint) error {
	return s.Invalidate(ctx, s.userKey(userID))
}

// MerchantAccess is the slice of merchant state the access gate needs.
type MerchantAccess struct {
	MerchantID     uint                  `json:"merchant_id"`
	OnboardingStep models.OnboardingStep `json:"onboarding_step"`
	Status         models.MerchantStatus `json:"status"`
}

func (s *CacheService) accessKey(ownerID uint) string {
	return s.GenerateKey("merchant_access", "owner", ownerID)
}

func (s *CacheService) MerchantAccessGeneration(ctx context.Context, ownerID uint) (string, error) {
	return s.Generation(ctx, s.accessKey(ownerID))
}

// CacheMerchantAccess stores the snapshot for MerchantAccessTTL unless it was
// invalidated after gen was read.
func (s *CacheService) CacheMerchantAccess(ctx context.Context, ownerID uint, gen string, access MerchantAccess) error {
	_, err := s.Fill(ctx, s.accessKey(ownerID), gen, access, MerchantAccessTTL)
	return err
}

// GetMerchantAccess returns the cached snapshot or (nil, nil) on a miss.
func (s *CacheService) GetMerchantAccess(ctx context.Context, ownerID uint) (*MerchantAccess, error) {
	var access MerchantAccess
	found, err := s.Get(ctx, s.accessKey(ownerID), &access)
	if err != nil || !found {
		return nil, err
	}
	return &access, nil
}

func (s *CacheService) InvalidateMerchantAccess(ctx context.Context, ownerID uint) error {
	return s.Invalidate(ctx, s.accessKey(ownerID))
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}
