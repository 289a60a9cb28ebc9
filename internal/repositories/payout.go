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

type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) WithTx(tx *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: tx}
}

func (r *PayoutRepository) Create(ctx context.Context, p *models.Payout) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create payout: %w", err)
	}
	return nil
}

func (r *PayoutRepository) ListByMerchant(ctx context.Context, merchantID uint) ([]models.Payout, error) {
	var payouts []models.Payout
	err := r.db.WithContext(ctx).Where("merchant_id = ?", merchantID).Order("created_at DESC, id DESC").Find(&payouts).Error
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	return payouts, nil
}

func (r *PayoutRepository) CountPending(ctx context.Context, merchantID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Payout{}).
		Where("merchant_id = ? AND status IN ?", merchantID, []models.PayoutStatus{models.PayoutPending, models.PayoutProcessing}).
		Count(&count).Error
	return count, err
}

func (r *PayoutRepository) GetForUpdate(ctx context.Context, id uint) (*models.Payout, error) {
	var p models.Payout
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
	if err != nil {
		return nil, notFound(err, apperrors.ErrPayoutNotFound, "get payout")
	}
	return &p, nil
}

// Transition moves a payout from one status to another only if it is still in from.
func (r *PayoutRepository) Transition(ctx context.Context, id uint, from, to models.PayoutStatus, reference string, processedAt *time.Time) (bool, error) {
	fields := map[string]interface{}{"status": to, "updated_at": time.Now()}
	if reference != "" {
		fields["reference"] = reference
	}
	if processedAt != nil {
		fields["processed_at"] = *processedAt
	}
	res := r.db.WithContext(ctx).Model(&models.Payout{}).Where("id = ? AND status = ?", id, from).Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("transition payout: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
