// Package transaction lists merchant transactions and applies the status
// changes allowed after payment.
package transaction

import (
	"context"
	"time"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/repositories"
	"sitex/internal/services/events"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

type Service interface {
	List(ctx context.Context, ownerID uint, q ListQuery, offset, limit int) ([]models.Transaction, int64, error)
	Get(ctx context.Context, ownerID, id uint) (*models.Transaction, error)
	// Refund moves a paid transaction to refunded and takes its net amount
	// back from the merchant balance.
	Refund(ctx context.Context, ownerID, id uint) (*models.Transaction, error)
}

type service struct {
	db           *gorm.DB
	merchants    *repositories.MerchantRepository
	transactions *repositories.TransactionRepository
	audit        *repositories.AuditRepository
	publisher    events.Publisher
}

func NewService(
	db *gorm.DB,
	merchants *repositories.MerchantRepository,
	transactions *repositories.TransactionRepository,
	audit *repositories.AuditRepository,
	publisher events.Publisher,
) Service {
	return &service{
		db:           db,
		merchants:    merchants,
		transactions: transactions,
		audit:        audit,
		publisher:    publisher,
	}
}

func (s *service) List(ctx context.Context, ownerID uint, q ListQuery, offset, limit int) ([]models.Transaction, int64, error) {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}
	return s.transactions.ListByMerchant(ctx, merchant.ID, q.Filter(), offset, limit)
}

func (s *service) Get(ctx context.Context, ownerID, id uint) (*models.Transaction, error) {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.transactions.GetOwned(ctx, merchant.ID, id)
}

func (s *service) Refund(ctx context.Context, ownerID, id uint) (*models.Transaction, error) {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var txn *models.Transaction
	err = repositories.ExecuteInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		txns := s.transactions.WithTx(tx)
		var err error
		if txn, err = txns.GetOwned(ctx, merchant.ID, id); err != nil {
			return err
		}
		if !txn.Status.CanTransition(models.TransactionRefunded) {
			return apperrors.ErrInvalidTxnTransition
		}
		ok, err := txns.Transition(ctx, txn.ID, txn.Status, models.TransactionRefunded)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrInvalidTxnTransition
		}
		debited, err := s.merchants.WithTx(tx).Debit(ctx, merchant.ID, txn.NetAmount)
		if err != nil {
			return err
		}
		if !debited {
			return apperrors.ErrInsufficientBalance.WithMessage("Available balance does not cover the refund.")
		}
		txn.Status = models.TransactionRefunded
		return s.audit.WithTx(tx).Record(ctx, &ownerID, "transaction.refund", map[string]interface{}{
			"transaction_id": txn.ID,
			"merchant_id":    merchant.ID,
			"amount":         txn.NetAmount.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}

	log.Infof("transaction %d refunded for merchant %d", txn.ID, merchant.ID)
	events.PublishAfterCommit(ctx, s.publisher, events.TopicTransactionRefund, txn.GatewayReference, events.TransactionRefunded{
		TransactionID: txn.ID,
		MerchantID:    merchant.ID,
		Amount:        txn.NetAmount,
		At:            time.Now(),
	})
	return txn, nil
}
