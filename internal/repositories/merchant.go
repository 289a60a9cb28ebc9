package repositories

import (
	"context"
	"fmt"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MerchantRepository struct {
	db *gorm.DB
}

func NewMerchantRepository(db *gorm.DB) *MerchantRepository {
	return &MerchantRepository{db: db}
}

func (r *MerchantRepository) WithTx(tx *gorm.DB) *MerchantRepository {
	return &MerchantRepository{db: tx}
}

func (r *MerchantRepository) Create(ctx context.Context, m *models.Merchant) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create merchant: %w", err)
	}
	return nil
}

func (r *MerchantRepository) GetByID(ctx context.Context, id uint) (*models.Merchant, error) {
	var m models.Merchant
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrMerchantNotFound, "get merchant")
	}
	return &m, nil
}

func (r *MerchantRepository) GetByOwner(ctx context.Context, ownerID uint) (*models.Merchant, error) {
	var m models.Merchant
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&m).Error; err != nil {
		return nil, notFound(err, apperrors.ErrMerchantNotFound, "get merchant by owner")
	}
	return &m, nil
}

// GetByOwnerForUpdate locks the owner's merchant row for the rest of the transaction.
func (r *MerchantRepository) GetByOwnerForUpdate(ctx context.Context, ownerID uint) (*models.Merchant, error) {
	var m models.Merchant
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ?", ownerID).First(&m).Error
	if err != nil {
		return nil, notFound(err, apperrors.ErrMerchantNotFound, "lock merchant")
	}
	return &m, nil
}

// Save persists every field of m.
func (r *MerchantRepository) Save(ctx context.Context, m *models.Merchant) error {
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return fmt.Errorf("save merchant: %w", err)
	}
	return nil
}

// UpdateFields writes the given columns without touching the balances.
func (r *MerchantRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Session(&gorm.Session{SkipHooks: true}).
		Model(&models.Merchant{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update merchant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrMerchantNotFound
	}
	return nil
}

// Credit adds amount to balance_available relative to the stored value.
func (r *MerchantRepository) Credit(ctx context.Context, id uint, amount decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&models.Merchant{}).Where("id = ?", id).
		UpdateColumn("balance_available", gorm.Expr("balance_available + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("credit merchant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrMerchantNotFound
	}
	return nil
}

// Debit subtracts amount only when the stored balance covers it.
// It reports false when the balance is insufficient.
func (r *MerchantRepository) Debit(ctx context.Context, id uint, amount decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Merchant{}).
		Where("id = ? AND balance_available >= ?", id, amount).
		UpdateColumn("balance_available", gorm.Expr("balance_available - ?", amount))
	if res.Error != nil {
		return false, fmt.Errorf("debit merchant: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// List pages through merchants, optionally filtered by status, newest first.
func (r *MerchantRepository) List(ctx context.Context, status models.MerchantStatus, offset, limit int) ([]models.Merchant, int64, error) {
	var (
		merchants []models.Merchant
		total     int64
	)
	q := r.db.WithContext(ctx).Model(&models.Merchant{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count merchants: %w", err)
	}
	if err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&merchants).Error; err != nil {
		return nil, 0, fmt.Errorf("list merchants: %w", err)
	}
	return merchants, total, nil
}

// TransitionStatus moves a merchant from one status to another only if it is still in from.
func (r *MerchantRepository) TransitionStatus(ctx context.Context, id uint, from, to models.MerchantStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Merchant{}).
		Where("id = ? AND status = ?", id, from).UpdateColumn("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("transition merchant: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
