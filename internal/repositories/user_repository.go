package repositories

import (
	"context"
	"fmt"
	"time"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/repositories/cache"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

type UserRepository struct {
	db    *gorm.DB
	cache *cache.CacheService
}

// NewUserRepository creates a user repository. cache may be nil.
func NewUserRepository(db *gorm.DB, cache *cache.CacheService) *UserRepository {
	return &UserRepository{db: db, cache: cache}
}

// WithTx returns a copy bound to tx.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx, cache: r.cache}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return apperrors.ErrUsernameTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByID reads through the cache.
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if user, err := r.cache.GetUser(ctx, id); err != nil {
		log.Warnf("user cache read %d: %v", id, err)
	} else if user != nil {
		return user, nil
	}

	gen, err := r.cache.UserGeneration(ctx, id)
	if err != nil {
		log.Warnf("user cache generation %d: %v", id, err)
	}
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound, "get user")
	}
	if gen == "" {
		return &user, nil
	}
	if err := r.cache.CacheUser(ctx, gen, &user); err != nil {
		log.Warnf("user cache write %d: %v", id, err)
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound, "get user by username")
	}
	return &user, nil
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count > 0, nil
}

// GrantRole adds role to the user's capability set. Callers invalidate the cache after commit.
func (r *UserRepository) GrantRole(ctx context.Context, userID uint, role models.Role) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("roles", gorm.Expr("roles | ?", int(role)))
	if res.Error != nil {
		return fmt.Errorf("grant role: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) IncrementTokenVersion(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("token_version", gorm.Expr("token_version + 1")).Error; err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}
	r.Invalidate(ctx, userID)
	return nil
}

func (r *UserRepository) TouchLogin(ctx context.Context, userID uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("last_login_at", at).Error
}

// Invalidate drops the cached copy of the user.
func (r *UserRepository) Invalidate(ctx context.Context, userID uint) {
	if err := r.cache.InvalidateUser(ctx, userID); err != nil {
		log.Warnf("user cache invalidate %d: %v", userID, err)
	}
}
