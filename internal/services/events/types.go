package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentPaid struct {
	TransactionID    uint            `json:"transaction_id"`
	MerchantID       uint            `json:"merchant_id"`
	PaymentLinkID    uint            `json:"payment_link_id"`
	Reference        string          `json:"reference"`
	Amount           decimal.Decimal `json:"amount"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	GatewayReference string          `json:"gateway_reference"`
	PaidAt           time.Time       `json:"paid_at"`
}

type PayoutEvent struct {
	PayoutID   uint            `json:"payout_id"`
	MerchantID uint            `json:"merchant_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Status     string          `json:"status"`
	At         time.Time       `json:"at"`
}

type TransactionRefunded struct {
	TransactionID uint            `json:"transaction_id"`
	MerchantID    uint            `json:"merchant_id"`
	Amount        decimal.Decimal `json:"amount"`
	At            time.Time       `json:"at"`
}

type WhatsAppOutbound struct {
	MessageID   uint      `json:"message_id"`
	ClientID    uint      `json:"client_id"`
	Phone       string    `json:"phone"`
	MessageType string    `json:"message_type"`
	Content     string    `json:"content"`
	QueuedAt    time.Time `json:"queued_at"`
}
