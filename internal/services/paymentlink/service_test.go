package paymentlink

import (
	"context"
	"testing"
	"time"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/repositories"
	"sitex/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	return NewService(db,
		repositories.NewMerchantRepository(db),
		repositories.NewPaymentLinkRepository(db),
		repositories.NewInvoiceRepository(db),
		repositories.NewSubscriptionRepository(db),
		"https://pay.example.com/",
	), db
}

func TestCreateLink(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner, m := testutil.SeedMerchant(t, db, "acme", "0")

	link, err := svc.Create(ctx, owner.ID, models.PaymentLinkInput{Title: "Order 1", Amount: "50.00", ExpiresAt: "2031-05-01T10:30"})
	require.NoError(t, err)
	assert.Equal(t, m.ID, link.MerchantID)
	assert.Len(t, link.Reference, 12)
	assert.True(t, link.IsActive)
	assert.True(t, link.Amount.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, link.ExpiresAt)
	assert.Equal(t, time.Date(2031, 5, 1, 10, 30, 0, 0, time.UTC), link.ExpiresAt.UTC())
	assert.Equal(t, "https://pay.example.com/pay/"+link.Reference+"/", link.FullURL)
}

func TestCreateLinkValidation(t *testing.T) {
	svc, db := newService(t)
	owner, _ := testutil.SeedMerchant(t, db, "acme", "0")

	_, err := svc.Create(context.Background(), owner.ID, models.PaymentLinkInput{Amount: "-1", ExpiresAt: "tomorrow"})
	var fields apperrors.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "amount")
	assert.Contains(t, fields, "expires_at")
}

func TestCreateLinkFromInvoice(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner, m := testutil.SeedMerchant(t, db, "acme", "0")
	inv := &models.MerchantInvoice{MerchantID: m.ID, InvoiceNumber: "INV-1", TotalAmount: decimal.RequireFromString("75.50")}
	require.NoError(t, repositories.NewInvoiceRepository(db).Create(ctx, inv))

	link, err := svc.Create(ctx, owner.ID, models.PaymentLinkInput{Title: "Invoice", Amount: "1", InvoiceID: inv.ID})
	require.NoError(t, err)
	assert.True(t, link.Amount.Equal(decimal.RequireFromString("75.50")))
	require.NotNil(t, link.InvoiceID)
	assert.Equal(t, inv.ID, *link.InvoiceID)
}

func TestCreateLinkQuota(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner, m := testutil.SeedMerchant(t, db, "acme", "0")
	pkg := testutil.SeedPackage(t, db, "Starter", 2, true)
	testutil.Subscribe(t, db, m.ID, pkg.ID)

	for i := 0; i < 2; i++ {
		_, err := svc.Create(ctx, owner.ID, models.PaymentLinkInput{Title: "L", Amount: "5"})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, owner.ID, models.PaymentLinkInput{Title: "L", Amount: "5"})
	assert.ErrorIs(t, err, apperrors.ErrLinkQuotaExceeded)
}

func TestUpdateAndDeleteAreOwnerScoped(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner, _ := testutil.SeedMerchant(t, db, "acme", "0")
	other, _ := testutil.SeedMerchant(t, db, "rival", "0")

	link, err := svc.Create(ctx, owner.ID, models.PaymentLinkInput{Title: "Old", Amount: "5"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, other.ID, link.ID, models.PaymentLinkInput{Title: "Hijack", Amount: "1"})
	assert.ErrorIs(t, err, apperrors.ErrLinkNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, other.ID, link.ID), apperrors.ErrLinkNotFound)

	updated, err := svc.Update(ctx, owner.ID, link.ID, models.PaymentLinkInput{Title: "New", Amount: "7.25"})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, link.Reference, updated.Reference)

	require.NoError(t, svc.Delete(ctx, owner.ID, link.ID))
	links, total, err := svc.List(ctx, owner.ID, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, links)
}

func TestUpdateKeepsConcurrentClaim(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner, _ := testutil.SeedMerchant(t, db, "acme", "0")
	links := repositories.NewPaymentLinkRepository(db)

	link, err := svc.Create(ctx, owner.ID, models.PaymentLinkInput{Title: "Order 9", Amount: "12"})
	require.NoError(t, err)

	// A customer pays between the edit's read and its write.
	claimed := false
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:claim_link", func(tx *gorm.DB) {
		if claimed || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "payment_links" {
			return
		}
		claimed = true
		won, err := links.Claim(context.Background(), link.ID)
		require.NoError(t, err)
		require.True(t, won)
	}))

	updated, err := svc.Update(ctx, owner.ID, link.ID, models.PaymentLinkInput{Title: "Order 9b", Amount: "15"})
	require.NoError(t, err)
	require.True(t, claimed)
	assert.Equal(t, "Order 9b", updated.Title)
	assert.False(t, updated.IsActive)

	require.NoError(t, db.Callback().Query().Remove("test:claim_link"))
	var stored models.PaymentLink
	require.NoError(t, db.First(&stored, link.ID).Error)
	assert.False(t, stored.IsActive)
	assert.True(t, stored.Amount.Equal(decimal.NewFromInt(15)))
}

func TestParseExpiry(t *testing.T) {
	at, ok := parseExpiry("2030-01-02T03:04:05Z")
	require.True(t, ok)
	assert.Equal(t, 2030, at.Year())

	_, ok = parseExpiry("02/01/2030")
	assert.False(t, ok)
}
