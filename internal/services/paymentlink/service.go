// Package paymentlink manages the shareable payment requests a merchant hands to customers.
package paymentlink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/repositories"
	"sitex/internal/utils"
	"sitex/internal/validation"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const referenceAttempts = 5

// expiryLayouts are accepted for expires_at, the second one being what a
// datetime-local input submits.
var expiryLayouts = []string{time.RFC3339, "2006-01-02T15:04"}

// LinkView is a link with its public URL.
type LinkView struct {
	models.PaymentLink
	FullURL string `json:"full_url"`
}

type Service interface {
	List(ctx context.Context, ownerID uint, offset, limit int) ([]LinkView, int64, error)
	Create(ctx context.Context, ownerID uint, input models.PaymentLinkInput) (*LinkView, error)
	Get(ctx context.Context, ownerID, id uint) (*LinkView, error)
	Update(ctx context.Context, ownerID, id uint, input models.PaymentLinkInput) (*LinkView, error)
	Delete(ctx context.Context, ownerID, id uint) error
	FullURL(reference string) string
}

type service struct {
	db            *gorm.DB
	merchants     *repositories.MerchantRepository
	links         *repositories.PaymentLinkRepository
	invoices      *repositories.InvoiceRepository
	subscriptions *repositories.SubscriptionRepository
	baseURL       string
	now           func() time.Time
}

func NewService(
	db *gorm.DB,
	merchants *repositories.MerchantRepository,
	links *repositories.PaymentLinkRepository,
	invoices *repositories.InvoiceRepository,
	subscriptions *repositories.SubscriptionRepository,
	baseURL string,
) Service {
	return &service{
		db:            db,
		merchants:     merchants,
		links:         links,
		invoices:      invoices,
		subscriptions: subscriptions,
		baseURL:       strings.TrimRight(baseURL, "/"),
		now:           time.Now,
	}
}

func (s *service) FullURL(reference string) string {
	return fmt.Sprintf("%s/pay/%s/", s.baseURL, reference)
}

func (s *service) view(link *models.PaymentLink) *LinkView {
	return &LinkView{PaymentLink: *link, FullURL: s.FullURL(link.Reference)}
}

func (s *service) List(ctx context.Context, ownerID uint, offset, limit int) ([]LinkView, int64, error) {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}
	links, total, err := s.links.ListByMerchant(ctx, merchant.ID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	views := make([]LinkView, len(links))
	for i := range links {
		views[i] = *s.view(&links[i])
	}
	return views, total, nil
}

func (s *service) Get(ctx context.Context, ownerID, id uint) (*LinkView, error) {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	link, err := s.links.GetOwned(ctx, merchant.ID, id)
	if err != nil {
		return nil, err
	}
	return s.view(link), nil
}

// parsed is a validated PaymentLinkInput.
type parsed struct {
	title     string
	amount    decimal.Decimal
	invoiceID *uint
	expiresAt *time.Time
}

// parse validates input. An owned invoice overrides the submitted amount with its total.
func (s *service) parse(ctx context.Context, merchantID uint, input models.PaymentLinkInput) (*parsed, error) {
	v := validation.New()
	v.Struct(&input)

	p := &parsed{title: strings.TrimSpace(input.Title)}
	if input.InvoiceID != 0 {
		inv, err := s.invoices.GetOwned(ctx, merchantID, input.InvoiceID)
		switch {
		case errors.Is(err, apperrors.ErrInvoiceNotFound):
			v.AddError("invoice_id", "Select a valid invoice.")
		case err != nil:
			return nil, err
		default:
			p.invoiceID = &inv.ID
			p.amount = inv.TotalAmount
			v.Check(inv.TotalAmount.IsPositive(), "invoice_id", "The invoice total must be greater than 0.")
		}
	} else {
		p.amount = v.Amount("amount", input.Amount)
	}

	if raw := strings.TrimSpace(input.ExpiresAt); raw != "" {
		at, ok := parseExpiry(raw)
		if ok {
			p.expiresAt = &at
		} else {
			v.AddError("expires_at", "Enter a valid date/time.")
		}
	}

	if err := v.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func parseExpiry(raw string) (time.Time, bool) {
	for _, layout := range expiryLayouts {
		if at, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return at, true
		}
	}
	return time.Time{}, false
}

func (s *service) Create(ctx context.Context, ownerID uint, input models.PaymentLinkInput) (*LinkView, error) {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	p, err := s.parse(ctx, merchant.ID, input)
	if err != nil {
		return nil, err
	}

	link := &models.PaymentLink{
		MerchantID: merchant.ID,
		Title:      p.title,
		Amount:     p.amount,
		InvoiceID:  p.invoiceID,
		ExpiresAt:  p.expiresAt,
		IsActive:   true,
	}
	err = repositories.ExecuteInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if _, err := s.merchants.WithTx(tx).GetByOwnerForUpdate(ctx, ownerID); err != nil {
			return err
		}
		if err := s.checkQuota(ctx, tx, merchant.ID); err != nil {
			return err
		}
		ref, err := s.reference(ctx, tx)
		if err != nil {
			return err
		}
		link.Reference = ref
		return s.links.WithTx(tx).Create(ctx, link)
	})
	if err != nil {
		return nil, err
	}
	log.Infof("merchant %d created payment link %s for %s", merchant.ID, link.Reference, link.Amount.StringFixed(2))
	return s.view(link), nil
}

// checkQuota enforces the subscribed package's max_payment_links. Merchants
// without a subscription row are not limited.
func (s *service) checkQuota(ctx context.Context, tx *gorm.DB, merchantID uint) error {
	sub, err := s.subscriptions.WithTx(tx).GetByMerchant(ctx, merchantID)
	if err != nil || sub == nil || sub.Package == nil {
		return err
	}
	active, err := s.links.WithTx(tx).CountActive(ctx, merchantID, s.now())
	if err != nil {
		return err
	}
	if active >= int64(sub.Package.MaxPaymentLinks) {
		return apperrors.ErrLinkQuotaExceeded.WithMessage(
			fmt.Sprintf("Your %s package allows %d active payment links.", sub.Package.Name, sub.Package.MaxPaymentLinks))
	}
	return nil
}

func (s *service) reference(ctx context.Context, tx *gorm.DB) (string, error) {
	for i := 0; i < referenceAttempts; i++ {
		ref := utils.ShortReference()
		exists, err := s.links.WithTx(tx).ReferenceExists(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("check link reference: %w", err)
		}
		if !exists {
			return ref, nil
		}
	}
	return "", fmt.Errorf("no unique link reference after %d attempts", referenceAttempts)
}

func (s *service) Update(ctx context.Context, ownerID, id uint, input models.PaymentLinkInput) (*LinkView, error) {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	link, err := s.links.GetOwned(ctx, merchant.ID, id)
	if err != nil {
		return nil, err
	}
	p, err := s.parse(ctx, merchant.ID, input)
	if err != nil {
		return nil, err
	}
	link.Title = p.title
	link.Amount = p.amount
	link.InvoiceID = p.invoiceID
	link.ExpiresAt = p.expiresAt
	if err := s.links.UpdateDetails(ctx, link); err != nil {
		return nil, err
	}
	if link, err = s.links.GetOwned(ctx, merchant.ID, id); err != nil {
		return nil, err
	}
	return s.view(link), nil
}

func (s *service) Delete(ctx context.Context, ownerID, id uint) error {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if err := s.links.Delete(ctx, merchant.ID, id); err != nil {
		return err
	}
	log.Infof("merchant %d deleted payment link %d", merchant.ID, id)
	return nil
}
