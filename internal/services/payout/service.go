// Package payout debits merchant balances for withdrawal requests and tracks
// their settlement status.
package payout

import (
	"context"
	"strings"
	"time"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/repositories"
	"sitex/internal/services/events"
	"sitex/internal/utils"
	"sitex/internal/validation"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

type Service interface {
	List(ctx context.Context, ownerID uint) ([]models.Payout, error)
	// Request debits the amount and records a pending payout atomically.
	Request(ctx context.Context, ownerID uint, input models.PayoutInput) (*models.Payout, error)
	// UpdateStatus moves a payout along its status table. Failing a payout
	// returns its amount to the merchant.
	UpdateStatus(ctx context.Context, actorID, payoutID uint, input models.PayoutStatusInput) (*models.Payout, error)
}

type service struct {
	db        *gorm.DB
	merchants *repositories.MerchantRepository
	payouts   *repositories.PayoutRepository
	audit     *repositories.AuditRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewService(
	db *gorm.DB,
	merchants *repositories.MerchantRepository,
	payouts *repositories.PayoutRepository,
	audit *repositories.AuditRepository,
	publisher events.Publisher,
) Service {
	return &service{
		db:        db,
		merchants: merchants,
		payouts:   payouts,
		audit:     audit,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *service) List(ctx context.Context, ownerID uint) ([]models.Payout, error) {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.payouts.ListByMerchant(ctx, merchant.ID)
}

func (s *service) Request(ctx context.Context, ownerID uint, input models.PayoutInput) (*models.Payout, error) {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	v := validation.New()
	amount := v.Amount("amount", input.Amount)
	v.Struct(&input)
	if err := v.Err(); err != nil {
		if v.Errors["amount"] != "" {
			return nil, apperrors.ErrInvalidAmount
		}
		return nil, err
	}
	method := models.PayoutMethod(strings.TrimSpace(input.Method))
	if method == "" {
		method = models.PayoutLypay
	}
	if !method.Valid() {
		return nil, apperrors.ErrInvalidPayoutMethod
	}

	p := &models.Payout{
		MerchantID: merchant.ID,
		Amount:     amount,
		Method:     method,
		Reference:  strings.TrimSpace(input.Reference),
		Status:     models.PayoutPending,
	}
	if p.Reference == "" {
		p.Reference = utils.ShortReference()
	}
	err = repositories.ExecuteInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		ok, err := s.merchants.WithTx(tx).Debit(ctx, merchant.ID, p.Amount)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrInsufficientBalance
		}
		return s.payouts.WithTx(tx).Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	log.Infof("merchant %d requested payout %d of %s via %s", merchant.ID, p.ID, p.Amount.StringFixed(2), p.Method)
	events.PublishAfterCommit(ctx, s.publisher, events.TopicPayoutRequested, p.Reference, s.event(p))
	return p, nil
}

func (s *service) UpdateStatus(ctx context.Context, actorID, payoutID uint, input models.PayoutStatusInput) (*models.Payout, error) {
	v := validation.New()
	v.Struct(&input)
	if err := v.Err(); err != nil {
		return nil, err
	}
	next := models.PayoutStatus(input.Status)

	var p *models.Payout
	err := repositories.ExecuteInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		p, err = s.payouts.WithTx(tx).GetForUpdate(ctx, payoutID)
		if err != nil {
			return err
		}
		if !p.Status.CanTransition(next) {
			return apperrors.ErrInvalidPayoutTransfer
		}

		var processedAt *time.Time
		if next == models.PayoutCompleted || next == models.PayoutFailed {
			now := s.now()
			processedAt = &now
		}
		ok, err := s.payouts.WithTx(tx).Transition(ctx, p.ID, p.Status, next, strings.TrimSpace(input.Reference), processedAt)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrInvalidPayoutTransfer
		}
		if next == models.PayoutFailed {
			if err := s.merchants.WithTx(tx).Credit(ctx, p.MerchantID, p.Amount); err != nil {
				return err
			}
		}

		from := p.Status
		p.Status = next
		p.ProcessedAt = processedAt
		if ref := strings.TrimSpace(input.Reference); ref != "" {
			p.Reference = ref
		}
		return s.audit.WithTx(tx).Record(ctx, &actorID, "payout.status", map[string]interface{}{
			"payout_id": p.ID,
			"from":      from,
			"to":        next,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Infof("payout %d moved to %s by user %d", p.ID, p.Status, actorID)
	events.PublishAfterCommit(ctx, s.publisher, events.TopicPayoutUpdated, p.Reference, s.event(p))
	return p, nil
}

func (s *service) event(p *models.Payout) events.PayoutEvent {
	return events.PayoutEvent{
		PayoutID:   p.ID,
		MerchantID: p.MerchantID,
		Amount:     p.Amount,
		Method:     string(p.Method),
		Status:     string(p.Status),
		At:         s.now(),
	}
}
