package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayoutMethod string

const (
	PayoutLypay PayoutMethod = "lypay"
	PayoutBank  PayoutMethod = "bank"
)

func (m PayoutMethod) Valid() bool {
	return m == PayoutLypay || m == PayoutBank
}

type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
)

var payoutTransitions = map[PayoutStatus][]PayoutStatus{
	PayoutPending:    {PayoutProcessing, PayoutFailed},
	PayoutProcessing: {PayoutCompleted, PayoutFailed},
}

func (s PayoutStatus) CanTransition(next PayoutStatus) bool {
	for _, allowed := range payoutTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Payout struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	MerchantID  uint            `gorm:"index;not null" json:"merchant_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Method      PayoutMethod    `gorm:"size:20;not null" json:"method"`
	Reference   string          `gorm:"size:150" json:"reference"`
	Status      PayoutStatus    `gorm:"size:20;not null;default:'pending'" json:"status"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type PayoutInput struct {
	Amount    string `json:"amount" form:"amount"`
	Method    string `json:"method" form:"method"`
	Reference string `json:"reference" form:"reference" validate:"max=150"`
}

type PayoutStatusInput struct {
	Status    string `json:"status" form:"status" validate:"required,oneof=processing completed failed"`
	Reference string `json:"reference" form:"reference"`
}
