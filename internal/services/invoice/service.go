// Package invoice keeps merchant invoices and their line items. The invoice
// total is always recomputed from the items it is stored with.
package invoice

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/repositories"
	"sitex/internal/validation"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service interface {
	List(ctx context.Context, ownerID uint, offset, limit int) ([]models.MerchantInvoice, int64, error)
	Get(ctx context.Context, ownerID, id uint) (*models.MerchantInvoice, error)
	Create(ctx context.Context, ownerID uint, input models.InvoiceInput) (*models.MerchantInvoice, error)
	Update(ctx context.Context, ownerID, id uint, input models.InvoiceInput) (*models.MerchantInvoice, error)
	Delete(ctx context.Context, ownerID, id uint) error
}

type service struct {
	db        *gorm.DB
	merchants *repositories.MerchantRepository
	invoices  *repositories.InvoiceRepository
}

func NewService(db *gorm.DB, merchants *repositories.MerchantRepository, invoices *repositories.InvoiceRepository) Service {
	return &service{db: db, merchants: merchants, invoices: invoices}
}

// ZipItems pairs the parallel form arrays by position, stopping at the shortest.
func ZipItems(descriptions, quantities, unitPrices []string) []models.InvoiceItemInput {
	n := len(descriptions)
	if len(quantities) < n {
		n = len(quantities)
	}
	if len(unitPrices) < n {
		n = len(unitPrices)
	}
	items := make([]models.InvoiceItemInput, n)
	for i := 0; i < n; i++ {
		items[i] = models.InvoiceItemInput{
			Description: descriptions[i],
			Quantity:    quantities[i],
			UnitPrice:   unitPrices[i],
		}
	}
	return items
}

// build validates input into an invoice with items and a computed total.
func build(input models.InvoiceInput) (*models.MerchantInvoice, error) {
	v := validation.New()
	v.Struct(&input)

	inv := &models.MerchantInvoice{
		InvoiceNumber: strings.TrimSpace(input.InvoiceNumber),
		Description:   strings.TrimSpace(input.Description),
	}
	for i, in := range input.Items {
		field := fmt.Sprintf("items[%d]", i)
		desc := strings.TrimSpace(in.Description)
		qty, qtyErr := strconv.Atoi(strings.TrimSpace(in.Quantity))
		price, priceErr := decimal.NewFromString(strings.TrimSpace(in.UnitPrice))
		switch {
		case desc == "":
			v.AddError(field, "Item description is required.")
		case qtyErr != nil || qty <= 0:
			v.AddError(field, apperrors.ErrInvalidInvoiceItems.Message)
		case priceErr != nil || price.IsNegative():
			v.AddError(field, apperrors.ErrInvalidInvoiceItems.Message)
		default:
			inv.Items = append(inv.Items, models.MerchantInvoiceItem{
				Description: desc,
				Quantity:    qty,
				UnitPrice:   price.Round(2),
			})
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	inv.Recalculate()
	return inv, nil
}

func (s *service) List(ctx context.Context, ownerID uint, offset, limit int) ([]models.MerchantInvoice, int64, error) {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}
	return s.invoices.ListByMerchant(ctx, merchant.ID, offset, limit)
}

func (s *service) Get(ctx context.Context, ownerID, id uint) (*models.MerchantInvoice, error) {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.invoices.GetOwned(ctx, merchant.ID, id)
}

func (s *service) Create(ctx context.Context, ownerID uint, input models.InvoiceInput) (*models.MerchantInvoice, error) {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	inv, err := build(input)
	if err != nil {
		return nil, err
	}
	inv.MerchantID = merchant.ID
	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, err
	}
	log.Infof("merchant %d created invoice %s totalling %s", merchant.ID, inv.InvoiceNumber, inv.TotalAmount.StringFixed(2))
	return inv, nil
}

func (s *service) Update(ctx context.Context, ownerID, id uint, input models.InvoiceInput) (*models.MerchantInvoice, error) {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	next, err := build(input)
	if err != nil {
		return nil, err
	}

	var inv *models.MerchantInvoice
	err = repositories.ExecuteInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		inv, err = s.invoices.WithTx(tx).GetOwned(ctx, merchant.ID, id)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = next.InvoiceNumber
		inv.Description = next.Description
		inv.Items = next.Items
		inv.TotalAmount = next.TotalAmount
		return s.invoices.WithTx(tx).ReplaceItems(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *service) Delete(ctx context.Context, ownerID, id uint) error {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	return repositories.ExecuteInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		return s.invoices.WithTx(tx).Delete(ctx, merchant.ID, id)
	})
}
