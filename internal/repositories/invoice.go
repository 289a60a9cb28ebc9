package repositories

import (
	"context"
	"fmt"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"

	"gorm.io/gorm"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) WithTx(tx *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: tx}
}

// Create inserts the invoice together with its items.
func (r *InvoiceRepository) Create(ctx context.Context, inv *models.MerchantInvoice) error {
	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		if isDuplicate(err) {
			return apperrors.ErrInvoiceNumberTaken
		}
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) GetOwned(ctx context.Context, merchantID, id uint) (*models.MerchantInvoice, error) {
	var inv models.MerchantInvoice
	err := r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id = ? AND merchant_id = ?", id, merchantID).First(&inv).Error
	if err != nil {
		return nil, notFound(err, apperrors.ErrInvoiceNotFound, "get invoice")
	}
	return &inv, nil
}

func (r *InvoiceRepository) ListByMerchant(ctx context.Context, merchantID uint, offset, limit int) ([]models.MerchantInvoice, int64, error) {
	var (
		invoices []models.MerchantInvoice
		total    int64
	)
	q := r.db.WithContext(ctx).Model(&models.MerchantInvoice{}).Where("merchant_id = ?", merchantID).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&invoices).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, total, nil
}

// ReplaceItems swaps the invoice's items for inv.Items and stores the header fields.
func (r *InvoiceRepository) ReplaceItems(ctx context.Context, inv *models.MerchantInvoice) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("invoice_id = ?", inv.ID).Delete(&models.MerchantInvoiceItem{}).Error; err != nil {
		return fmt.Errorf("delete invoice items: %w", err)
	}
	for i := range inv.Items {
		inv.Items[i].ID = 0
		inv.Items[i].InvoiceID = inv.ID
	}
	if len(inv.Items) > 0 {
		if err := db.Create(&inv.Items).Error; err != nil {
			return fmt.Errorf("create invoice items: %w", err)
		}
	}
	err := db.Model(&models.MerchantInvoice{}).Where("id = ?", inv.ID).Updates(map[string]interface{}{
		"invoice_number": inv.InvoiceNumber,
		"description":    inv.Description,
		"total_amount":   inv.TotalAmount,
	}).Error
	if isDuplicate(err) {
		return apperrors.ErrInvoiceNumberTaken
	}
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

// Delete removes an owned invoice and its items. Links pointing at it keep their amount.
func (r *InvoiceRepository) Delete(ctx context.Context, merchantID, id uint) error {
	db := r.db.WithContext(ctx)
	res := db.Where("id = ? AND merchant_id = ?", id, merchantID).Delete(&models.MerchantInvoice{})
	if res.Error != nil {
		return fmt.Errorf("delete invoice: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrInvoiceNotFound
	}
	if err := db.Where("invoice_id = ?", id).Delete(&models.MerchantInvoiceItem{}).Error; err != nil {
		return fmt.Errorf("delete invoice items: %w", err)
	}
	return db.Unscoped().Model(&models.PaymentLink{}).Where("invoice_id = ?", id).
		UpdateColumn("invoice_id", nil).Error
}
