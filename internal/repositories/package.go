package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PackageRepository struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

func (r *PackageRepository) WithTx(tx *gorm.DB) *PackageRepository {
	return &PackageRepository{db: tx}
}

func (r *PackageRepository) Create(ctx context.Context, p *models.MerchantPackage) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PackageRepository) ListActive(ctx context.Context) ([]models.MerchantPackage, error) {
	var pkgs []models.MerchantPackage
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("monthly_price, id").Find(&pkgs).Error; err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return pkgs, nil
}

// GetActive returns the package only when it is active.
func (r *PackageRepository) GetActive(ctx context.Context, id uint) (*models.MerchantPackage, error) {
	var p models.MerchantPackage
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&p).Error; err != nil {
		return nil, notFound(err, apperrors.ErrPackageNotFound, "get package")
	}
	return &p, nil
}

func (r *PackageRepository) GetByName(ctx context.Context, name string) (*models.MerchantPackage, error) {
	var p models.MerchantPackage
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&p).Error; err != nil {
		return nil, notFound(err, apperrors.ErrPackageNotFound, "get package by name")
	}
	return &p, nil
}

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) WithTx(tx *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: tx}
}

// GetByMerchant returns the merchant's subscription with its package, or nil when none exists.
func (r *SubscriptionRepository) GetByMerchant(ctx context.Context, merchantID uint) (*models.MerchantSubscription, error) {
	var sub models.MerchantSubscription
	err := r.db.WithContext(ctx).Preload("Package").Where("merchant_id = ?", merchantID).Take(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &sub, nil
}

// Upsert points the merchant's single subscription at packageID, active until expiresAt.
// started_at is kept from the first subscription.
func (r *SubscriptionRepository) Upsert(ctx context.Context, merchantID, packageID uint, now, expiresAt time.Time) error {
	sub := models.MerchantSubscription{
		MerchantID: merchantID,
		PackageID:  packageID,
		StartedAt:  now,
		ExpiresAt:  expiresAt,
		IsActive:   true,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "merchant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"package_id", "expires_at", "is_active", "updated_at"}),
	}).Create(&sub).Error
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}
