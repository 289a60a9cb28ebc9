package payment

import (
	"context"

	"sitex/internal/models"
)

// Service is the public, unauthenticated customer side of a payment link.
type Service interface {
	// View describes the payment page for reference without changing anything.
	View(ctx context.Context, reference string) (*Checkout, error)
	// Pay settles the link once. Paying an already paid link returns the
	// existing transaction with created set to false.
	Pay(ctx context.Context, reference string) (txn *models.Transaction, created bool, err error)
	Receipt(ctx context.Context, transactionID uint) (*models.Transaction, error)
}

// Checkout is what the customer sees before confirming.
type Checkout struct {
	Link *models.PaymentLink `json:"link"`

	// PaidTransactionID is set when the link was already paid.
	PaidTransactionID *uint  `json:"paid_transaction_id,omitempty"`
	Valid             bool   `json:"valid"`
	Message           string `json:"message,omitempty"`
}
