package payment

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/repositories"
	"sitex/internal/services/events"
	"sitex/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc       Service
	db        *gorm.DB
	publisher *testutil.Publisher
	merchant  *models.Merchant
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	pub := (&testutil.Publisher{}).AcceptAll()
	_, m := testutil.SeedMerchant(t, db, "acme", "0")
	svc := NewService(db,
		repositories.NewMerchantRepository(db),
		repositories.NewPaymentLinkRepository(db),
		repositories.NewTransactionRepository(db),
		pub,
	)
	return &fixture{svc: svc, db: db, publisher: pub, merchant: m}
}

func (f *fixture) link(t *testing.T, ref, amount string, expiresAt *time.Time) *models.PaymentLink {
	t.Helper()
	l := &models.PaymentLink{
		MerchantID: f.merchant.ID,
		Title:      "Order " + ref,
		Amount:     decimal.RequireFromString(amount),
		Reference:  ref,
		IsActive:   true,
		ExpiresAt:  expiresAt,
	}
	require.NoError(t, repositories.NewPaymentLinkRepository(f.db).Create(context.Background(), l))
	return l
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	m, err := repositories.NewMerchantRepository(f.db).GetByID(context.Background(), f.merchant.ID)
	require.NoError(t, err)
	return m.BalanceAvailable
}

func (f *fixture) paidCount(t *testing.T, linkID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Transaction{}).
		Where("payment_link_id = ? AND status = ?", linkID, models.TransactionPaid).Count(&n).Error)
	return n
}

func TestPayCreditsOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l := f.link(t, "abc123def456", "50.00", nil)

	txn, created, err := f.svc.Pay(ctx, l.Reference)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.TransactionPaid, txn.Status)
	assert.True(t, txn.NetAmount.Equal(decimal.NewFromInt(50)))
	assert.True(t, txn.PlutuFee.IsZero())
	assert.Len(t, txn.GatewayReference, 12)
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(50)))

	f.publisher.AssertCalled(t, "Publish", mock.Anything, events.TopicPaymentPaid, l.Reference, mock.Anything)

	again, created, err := f.svc.Pay(ctx, l.Reference)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, txn.ID, again.ID)
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(50)))
	assert.EqualValues(t, 1, f.paidCount(t, l.ID))
	f.publisher.AssertNumberOfCalls(t, "Publish", 1)

	view, err := f.svc.View(ctx, l.Reference)
	require.NoError(t, err)
	require.NotNil(t, view.PaidTransactionID)
	assert.Equal(t, txn.ID, *view.PaidTransactionID)
	assert.False(t, view.Link.IsActive)
}

func TestPayExpiredOrInactive(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)
	expired := f.link(t, "expired00001", "10", &past)

	view, err := f.svc.View(ctx, expired.Reference)
	require.NoError(t, err)
	assert.False(t, view.Valid)
	assert.Equal(t, apperrors.ErrLinkNotValid.Message, view.Message)

	_, _, err = f.svc.Pay(ctx, expired.Reference)
	assert.ErrorIs(t, err, apperrors.ErrLinkNotValid)

	inactive := f.link(t, "inactive0001", "10", nil)
	require.NoError(t, f.db.Model(inactive).Update("is_active", false).Error)
	_, _, err = f.svc.Pay(ctx, inactive.Reference)
	assert.ErrorIs(t, err, apperrors.ErrLinkNotValid)

	assert.True(t, f.balance(t).IsZero())
	_, _, err = f.svc.Pay(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrLinkNotFound)
}

func TestConcurrentPaymentsSettleOnce(t *testing.T) {
	f := setup(t)
	l := f.link(t, "race00000001", "25.00", nil)

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = map[uint]bool{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			txn, ok, err := f.svc.Pay(context.Background(), l.Reference)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[txn.ID] = true
			if ok {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)
	assert.EqualValues(t, 1, f.paidCount(t, l.ID))
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(25)))
}

func TestPayLosingClaimReturnsWinnersReceipt(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l := f.link(t, "race00000001", "30.00", nil)

	// Another submission settles the link after this one has checked it but
	// before it claims it.
	var winner *models.Transaction
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("test:settle_first", func(tx *gorm.DB) {
		if winner != nil || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "payment_links" {
			return
		}
		linkID := l.ID
		winner = &models.Transaction{
			MerchantID:       l.MerchantID,
			PaymentLinkID:    &linkID,
			Amount:           l.Amount,
			NetAmount:        l.Amount,
			Status:           models.TransactionPaid,
			GatewayReference: "winner000001",
		}
		other := tx.Session(&gorm.Session{NewDB: true})
		require.NoError(t, other.Create(winner).Error)
		require.NoError(t, other.Exec("UPDATE payment_links SET is_active = ? WHERE id = ?", false, l.ID).Error)
	}))
	t.Cleanup(func() { _ = f.db.Callback().Update().Remove("test:settle_first") })

	txn, created, err := f.svc.Pay(ctx, l.Reference)
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.False(t, created)
	assert.Equal(t, winner.ID, txn.ID)
	assert.Equal(t, "winner000001", txn.GatewayReference)
	assert.EqualValues(t, 1, f.paidCount(t, l.ID))
	assert.True(t, f.balance(t).IsZero())
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, events.TopicPaymentPaid, mock.Anything, mock.Anything)
}

func TestReceipt(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l := f.link(t, "receipt00001", "9.99", nil)
	txn, _, err := f.svc.Pay(ctx, l.Reference)
	require.NoError(t, err)

	receipt, err := f.svc.Receipt(ctx, txn.ID)
	require.NoError(t, err)
	require.NotNil(t, receipt.PaymentLink)
	require.NotNil(t, receipt.Merchant)
	assert.Equal(t, l.Title, receipt.PaymentLink.Title)
	assert.Equal(t, f.merchant.Name, receipt.Merchant.Name)

	_, err = f.svc.Receipt(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
}
