package repositories

import (
	"context"
	"fmt"
	"time"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentLinkRepository struct {
	db *gorm.DB
}

func NewPaymentLinkRepository(db *gorm.DB) *PaymentLinkRepository {
	return &PaymentLinkRepository{db: db}
}

func (r *PaymentLinkRepository) WithTx(tx *gorm.DB) *PaymentLinkRepository {
	return &PaymentLinkRepository{db: tx}
}

func (r *PaymentLinkRepository) Create(ctx context.Context, link *models.PaymentLink) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("create payment link: %w", err)
	}
	return nil
}

// GetOwned returns the link only when it belongs to merchantID.
func (r *PaymentLinkRepository) GetOwned(ctx context.Context, merchantID, id uint) (*models.PaymentLink, error) {
	var link models.PaymentLink
	err := r.db.WithContext(ctx).Where("id = ? AND merchant_id = ?", id, merchantID).First(&link).Error
	if err != nil {
		return nil, notFound(err, apperrors.ErrLinkNotFound, "get payment link")
	}
	return &link, nil
}

func (r *PaymentLinkRepository) GetByReference(ctx context.Context, reference string) (*models.PaymentLink, error) {
	var link models.PaymentLink
	err := r.db.WithContext(ctx).Preload("Merchant").Where("reference = ?", reference).First(&link).Error
	if err != nil {
		return nil, notFound(err, apperrors.ErrLinkNotFound, "get payment link by reference")
	}
	return &link, nil
}

// GetByReferenceForUpdate locks the link row for the rest of the transaction.
func (r *PaymentLinkRepository) GetByReferenceForUpdate(ctx context.Context, reference string) (*models.PaymentLink, error) {
	var link models.PaymentLink
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference = ?", reference).First(&link).Error
	if err != nil {
		return nil, notFound(err, apperrors.ErrLinkNotFound, "lock payment link")
	}
	return &link, nil
}

func (r *PaymentLinkRepository) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.PaymentLink{}).Where("reference = ?", reference).Count(&count).Error
	return count > 0, err
}

func (r *PaymentLinkRepository) ListByMerchant(ctx context.Context, merchantID uint, offset, limit int) ([]models.PaymentLink, int64, error) {
	var (
		links []models.PaymentLink
		total int64
	)
	q := r.db.WithContext(ctx).Model(&models.PaymentLink{}).Where("merchant_id = ?", merchantID).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count payment links: %w", err)
	}
	if err := q.Preload("Invoice").Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&links).Error; err != nil {
		return nil, 0, fmt.Errorf("list payment links: %w", err)
	}
	return links, total, nil
}

// CountActive counts links that are active and not expired at now.
func (r *PaymentLinkRepository) CountActive(ctx context.Context, merchantID uint, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PaymentLink{}).
		Where("merchant_id = ? AND is_active = ? AND (expires_at IS NULL OR expires_at > ?)", merchantID, true, now).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count active links: %w", err)
	}
	return count, nil
}

func (r *PaymentLinkRepository) CountAll(ctx context.Context, merchantID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PaymentLink{}).Where("merchant_id = ?", merchantID).Count(&count).Error
	return count, err
}

// UpdateDetails writes the editable columns only. is_active belongs to Claim
// and Delete.
func (r *PaymentLinkRepository) UpdateDetails(ctx context.Context, link *models.PaymentLink) error {
	err := r.db.WithContext(ctx).Model(link).
		Select("title", "amount", "invoice_id", "expires_at", "updated_at").
		Updates(link).Error
	if err != nil {
		return fmt.Errorf("update payment link: %w", err)
	}
	return nil
}

// Claim deactivates the link only if it is still active. Exactly one caller wins.
func (r *PaymentLinkRepository) Claim(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.PaymentLink{}).
		Where("id = ? AND is_active = ?", id, true).
		UpdateColumn("is_active", false)
	if res.Error != nil {
		return false, fmt.Errorf("claim payment link: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Delete deactivates and soft-deletes an owned link.
func (r *PaymentLinkRepository) Delete(ctx context.Context, merchantID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PaymentLink{}).Where("id = ? AND merchant_id = ?", id, merchantID).
			UpdateColumn("is_active", false)
		if res.Error != nil {
			return fmt.Errorf("deactivate payment link: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrLinkNotFound
		}
		return tx.Where("id = ? AND merchant_id = ?", id, merchantID).Delete(&models.PaymentLink{}).Error
	})
}
