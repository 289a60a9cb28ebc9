package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type TransactionStatus string

const (
	TransactionInitiated TransactionStatus = "initiated"
	TransactionPaid      TransactionStatus = "paid"
	TransactionFailed    TransactionStatus = "failed"
	TransactionRefunded  TransactionStatus = "refunded"
)

var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionInitiated: {TransactionPaid, TransactionFailed},
	TransactionPaid:      {TransactionRefunded},
}

// CanTransition reports whether a transaction may move from s to next.
func (s TransactionStatus) CanTransition(next TransactionStatus) bool {
	for _, allowed := range transactionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Transaction struct {
	ID               uint              `gorm:"primarykey" json:"id"`
	MerchantID       uint              `gorm:"index;not null" json:"merchant_id"`
	Merchant         *Merchant         `json:"merchant,omitempty"`
	PaymentLinkID    *uint             `gorm:"index" json:"payment_link_id,omitempty"`
	PaymentLink      *PaymentLink      `gorm:"constraint:OnDelete:SET NULL" json:"payment_link,omitempty"`
	Amount           decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"amount"`
	PlutuFee         decimal.Decimal   `gorm:"type:decimal(8,2);not null;default:0" json:"plutu_fee"`
	PlatformFee      decimal.Decimal   `gorm:"type:decimal(8,2);not null;default:0" json:"platform_fee"`
	NetAmount        decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"net_amount"`
	Status           TransactionStatus `gorm:"size:20;index;not null;default:'initiated'" json:"status"`
	GatewayReference string            `gorm:"size:150;index" json:"gateway_reference"`
	Metadata         datatypes.JSON    `json:"metadata"`
	CreatedAt        time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// ComputeNet sets NetAmount from the amount and fees.
func (t *Transaction) ComputeNet() {
	t.NetAmount = t.Amount.Sub(t.PlutuFee).Sub(t.PlatformFee)
}
