package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MerchantPackage is a plan a merchant can subscribe to.
type MerchantPackage struct {
	ID                    uint            `gorm:"primarykey" json:"id"`
	Name                  string          `gorm:"size:100;not null" json:"name"`
	MonthlyPrice          decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"monthly_price"`
	TransactionFeePercent decimal.Decimal `gorm:"type:decimal(4,2);not null" json:"transaction_fee_percent"`
	MaxPaymentLinks       int             `gorm:"not null;default:10" json:"max_payment_links"`
	IsActive              bool            `gorm:"not null" json:"is_active"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// MerchantSubscription is the single plan assignment of a merchant.
type MerchantSubscription struct {
	ID         uint             `gorm:"primarykey" json:"id"`
	MerchantID uint             `gorm:"uniqueIndex;not null" json:"merchant_id"`
	PackageID  uint             `gorm:"index;not null" json:"package_id"`
	Package    *MerchantPackage `gorm:"foreignKey:PackageID;constraint:OnDelete:RESTRICT" json:"package,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	ExpiresAt  time.Time        `json:"expires_at"`
	IsActive   bool             `gorm:"not null" json:"is_active"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Current reports whether the subscription is active and unexpired at now.
func (s *MerchantSubscription) Current(now time.Time) bool {
	return s != nil && s.IsActive && now.Before(s.ExpiresAt)
}
