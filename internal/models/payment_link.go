package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentLink struct {
	ID         uint             `gorm:"primarykey" json:"id"`
	MerchantID uint             `gorm:"index;not null" json:"merchant_id"`
	Merchant   *Merchant        `json:"merchant,omitempty"`
	Title      string           `gorm:"size:200;not null" json:"title"`
	Amount     decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"amount"`
	InvoiceID  *uint            `gorm:"index" json:"invoice_id,omitempty"`
	Invoice    *MerchantInvoice `gorm:"constraint:OnDelete:SET NULL" json:"invoice,omitempty"`
	Reference  string           `gorm:"size:100;uniqueIndex;not null" json:"reference"`
	IsActive   bool             `gorm:"not null" json:"is_active"`
	ExpiresAt  *time.Time       `json:"expires_at,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	DeletedAt  gorm.DeletedAt   `gorm:"index" json:"-"`
}

// Expired reports whether the link has an expiry at or before now.
func (l *PaymentLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

// Payable reports whether a customer may still pay the link.
func (l *PaymentLink) Payable(now time.Time) bool {
	return l.IsActive && !l.Expired(now)
}

type PaymentLinkInput struct {
	Title     string `json:"title" form:"title" validate:"required,max=200"`
	Amount    string `json:"amount" form:"amount"`
	InvoiceID uint   `json:"invoice_id" form:"invoice_id"`
	ExpiresAt string `json:"expires_at" form:"expires_at"`
}
