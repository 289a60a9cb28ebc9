package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/repositories"
	"sitex/internal/services/events"
	"sitex/internal/utils"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type service struct {
	db           *gorm.DB
	merchants    *repositories.MerchantRepository
	links        *repositories.PaymentLinkRepository
	transactions *repositories.TransactionRepository
	publisher    events.Publisher
	now          func() time.Time
}

// NewService creates a new payment service
func NewService(
	db *gorm.DB,
	merchants *repositories.MerchantRepository,
	links *repositories.PaymentLinkRepository,
	transactions *repositories.TransactionRepository,
	publisher events.Publisher,
) Service {
	return &service{
		db:           db,
		merchants:    merchants,
		links:        links,
		transactions: transactions,
		publisher:    publisher,
		now:          time.Now,
	}
}

func (s *service) View(ctx context.Context, reference string) (*Checkout, error) {
	link, err := s.links.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	paid, err := s.transactions.FindPaidForLink(ctx, link.ID)
	if err != nil {
		return nil, err
	}
	checkout := &Checkout{Link: link}
	switch {
	case paid != nil:
		checkout.PaidTransactionID = &paid.ID
	case !link.Payable(s.now()):
		checkout.Message = apperrors.ErrLinkNotValid.Message
	default:
		checkout.Valid = true
	}
	return checkout, nil
}

func (s *service) Pay(ctx context.Context, reference string) (*models.Transaction, bool, error) {
	var (
		txn     *models.Transaction
		created bool
		link    *models.PaymentLink
	)
	err := repositories.ExecuteInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		links := s.links.WithTx(tx)
		txns := s.transactions.WithTx(tx)

		var err error
		link, err = links.GetByReferenceForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		if txn, err = txns.FindPaidForLink(ctx, link.ID); err != nil || txn != nil {
			return err
		}
		if !link.Payable(s.now()) {
			return apperrors.ErrLinkNotValid
		}

		won, err := links.Claim(ctx, link.ID)
		if err != nil {
			return err
		}
		if !won {
			// Another submission settled the link first.
			if txn, err = txns.FindPaidForLink(ctx, link.ID); err != nil || txn != nil {
				return err
			}
			return apperrors.ErrLinkNotValid
		}

		txn, err = s.settle(ctx, tx, link)
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		log.Infof("payment link %s paid: transaction %d, %s credited to merchant %d",
			link.Reference, txn.ID, txn.NetAmount.StringFixed(2), txn.MerchantID)
		events.PublishAfterCommit(ctx, s.publisher, events.TopicPaymentPaid, link.Reference, events.PaymentPaid{
			TransactionID:    txn.ID,
			MerchantID:       txn.MerchantID,
			PaymentLinkID:    link.ID,
			Reference:        link.Reference,
			Amount:           txn.Amount,
			NetAmount:        txn.NetAmount,
			GatewayReference: txn.GatewayReference,
			PaidAt:           txn.CreatedAt,
		})
	}
	return txn, created, nil
}

// settle records the paid transaction and credits the merchant. No gateway is
// involved, so both fees are zero.
func (s *service) settle(ctx context.Context, tx *gorm.DB, link *models.PaymentLink) (*models.Transaction, error) {
	meta, err := json.Marshal(map[string]string{"reference": link.Reference, "title": link.Title})
	if err != nil {
		return nil, fmt.Errorf("encode transaction metadata: %w", err)
	}
	linkID := link.ID
	txn := &models.Transaction{
		MerchantID:       link.MerchantID,
		PaymentLinkID:    &linkID,
		Amount:           link.Amount,
		PlutuFee:         decimal.Zero,
		PlatformFee:      decimal.Zero,
		Status:           models.TransactionPaid,
		GatewayReference: utils.ShortReference(),
		Metadata:         datatypes.JSON(meta),
	}
	txn.ComputeNet()
	if err := s.transactions.WithTx(tx).Create(ctx, txn); err != nil {
		return nil, err
	}
	if err := s.merchants.WithTx(tx).Credit(ctx, link.MerchantID, txn.NetAmount); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) Receipt(ctx context.Context, transactionID uint) (*models.Transaction, error) {
	return s.transactions.GetReceipt(ctx, transactionID)
}
