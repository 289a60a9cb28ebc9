package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MerchantInvoice struct {
	ID            uint                  `gorm:"primarykey" json:"id"`
	MerchantID    uint                  `gorm:"index;not null" json:"merchant_id"`
	InvoiceNumber string                `gorm:"size:50;uniqueIndex;not null" json:"invoice_number"`
	Description   string                `json:"description"`
	TotalAmount   decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Items         []MerchantInvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// Recalculate sets TotalAmount to the sum of the item subtotals.
func (inv *MerchantInvoice) Recalculate() {
	total := decimal.Zero
	for i := range inv.Items {
		total = total.Add(inv.Items[i].Subtotal())
	}
	inv.TotalAmount = total
}

type MerchantInvoiceItem struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	InvoiceID   uint            `gorm:"index;not null" json:"invoice_id"`
	Description string          `gorm:"size:255;not null" json:"description"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
}

func (it *MerchantInvoiceItem) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type InvoiceItemInput struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

type InvoiceInput struct {
	InvoiceNumber string             `json:"invoice_number" form:"invoice_number" validate:"required,max=50"`
	Description   string             `json:"description" form:"description"`
	Items         []InvoiceItemInput `json:"items" form:"-"`
}
