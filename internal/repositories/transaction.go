package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	if err := r.db.WithContext(ctx).Omit("Merchant", "PaymentLink").Create(t).Error; err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// GetReceipt loads a transaction with its link and merchant.
func (r *TransactionRepository) GetReceipt(ctx context.Context, id uint) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.WithContext(ctx).
		Preload("PaymentLink", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Merchant").First(&t, id).Error
	if err != nil {
		return nil, notFound(err, apperrors.ErrTransactionNotFound, "get transaction")
	}
	return &t, nil
}

func (r *TransactionRepository) GetOwned(ctx context.Context, merchantID, id uint) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.WithContext(ctx).Where("id = ? AND merchant_id = ?", id, merchantID).First(&t).Error
	if err != nil {
		return nil, notFound(err, apperrors.ErrTransactionNotFound, "get transaction")
	}
	return &t, nil
}

// FindPaidForLink returns the paid transaction for a link, or nil.
func (r *TransactionRepository) FindPaidForLink(ctx context.Context, linkID uint) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.WithContext(ctx).Where("payment_link_id = ? AND status = ?", linkID, models.TransactionPaid).
		Order("id").First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find paid transaction: %w", err)
	}
	return &t, nil
}

// TransactionFilter narrows merchant transaction listings.
type TransactionFilter struct {
	Status models.TransactionStatus
	From   *time.Time
	To     *time.Time
}

func (r *TransactionRepository) ListByMerchant(ctx context.Context, merchantID uint, f TransactionFilter, offset, limit int) ([]models.Transaction, int64, error) {
	var (
		txns  []models.Transaction
		total int64
	)
	q := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("merchant_id = ?", merchantID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	q = q.Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	err := q.Preload("PaymentLink", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&txns).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return txns, total, nil
}

// Between returns every transaction of the merchant created in [from, to).
func (r *TransactionRepository) Between(ctx context.Context, merchantID uint, from, to time.Time) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Preload("PaymentLink", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("merchant_id = ? AND created_at >= ? AND created_at < ?", merchantID, from, to).
		Order("created_at").Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("transactions between: %w", err)
	}
	return txns, nil
}

func (r *TransactionRepository) Count(ctx context.Context, merchantID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("merchant_id = ?", merchantID).Count(&count).Error
	return count, err
}

func (r *TransactionRepository) Recent(ctx context.Context, merchantID uint, n int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).Where("merchant_id = ?", merchantID).Order("created_at DESC, id DESC").Limit(n).Find(&txns).Error
	return txns, err
}

// Transition moves a transaction from one status to another only if it is still in from.
func (r *TransactionRepository) Transition(ctx context.Context, id uint, from, to models.TransactionStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, fmt.Errorf("transition transaction: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
