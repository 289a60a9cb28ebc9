package dashboard

import (
	"context"
	"testing"
	"time"

	"sitex/internal/models"
	"sitex/internal/repositories"
	"sitex/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txn(status models.TransactionStatus, amount string, at time.Time, linkID uint) models.Transaction {
	t := models.Transaction{Status: status, Amount: decimal.RequireFromString(amount), CreatedAt: at}
	if linkID != 0 {
		id := linkID
		t.PaymentLinkID = &id
		t.PaymentLink = &models.PaymentLink{ID: id, Title: "Link"}
	}
	t.ComputeNet()
	return t
}

func TestAggregate(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	start := now.AddDate(0, 0, -7)
	previousStart := start.AddDate(0, 0, -7)

	txns := []models.Transaction{
		txn(models.TransactionPaid, "40", previousStart.Add(time.Hour), 0),
		txn(models.TransactionPaid, "50", now.Add(-2*time.Hour), 1),
		txn(models.TransactionPaid, "30", now.Add(-20*time.Hour), 2),
		txn(models.TransactionPaid, "20", now.Add(-3*24*time.Hour), 1),
		txn(models.TransactionFailed, "99", now.Add(-time.Hour), 0),
	}
	r := aggregate(txns, now, start, previousStart, 7)

	assert.True(t, r.TotalRevenue.Equal(decimal.NewFromInt(100)))
	assert.True(t, r.NetRevenue.Equal(decimal.NewFromInt(100)))
	assert.True(t, r.TotalFees.IsZero())
	assert.EqualValues(t, 3, r.TransactionCount)
	assert.True(t, r.AverageAmount.Equal(decimal.RequireFromString("33.33")))
	assert.Equal(t, 150.0, r.RevenueChange)
	assert.Equal(t, 200.0, r.TransactionChange)
	assert.Equal(t, 75.0, r.ConversionRate)
	assert.True(t, r.TodayRevenue.Equal(decimal.NewFromInt(50)))
	assert.EqualValues(t, 1, r.TodayCount)
	assert.True(t, r.YesterdayRevenue.Equal(decimal.NewFromInt(30)))
	assert.Len(t, r.Daily, 8)

	require.Len(t, r.StatusBreakdown, 2)
	assert.Equal(t, models.TransactionPaid, r.StatusBreakdown[0].Status)
	assert.Equal(t, 75.0, r.StatusBreakdown[0].Percentage)

	require.Len(t, r.TopLinks, 2)
	assert.EqualValues(t, 1, r.TopLinks[0].LinkID)
	assert.True(t, r.TopLinks[0].Revenue.Equal(decimal.NewFromInt(70)))
	assert.EqualValues(t, 2, r.TopLinks[0].Count)
}

func TestAggregateEmpty(t *testing.T) {
	now := time.Now()
	r := aggregate(nil, now, now.AddDate(0, 0, -30), now.AddDate(0, 0, -60), 30)
	assert.True(t, r.TotalRevenue.IsZero())
	assert.Zero(t, r.ConversionRate)
	assert.Empty(t, r.StatusBreakdown)
	assert.Len(t, r.Daily, 31)
}

func TestGetAnalyticsDefaultsPeriod(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(
		repositories.NewMerchantRepository(db),
		repositories.NewTransactionRepository(db),
		repositories.NewPaymentLinkRepository(db),
		repositories.NewPayoutRepository(db),
		repositories.NewSubscriptionRepository(db),
	)
	owner, _ := testutil.SeedMerchant(t, db, "acme", "12.50")

	r, err := svc.GetAnalytics(context.Background(), owner.ID, "weird")
	require.NoError(t, err)
	assert.Equal(t, "30d", r.Period)
	assert.Equal(t, "Last 30 days", r.PeriodName)

	stats, err := svc.GetMerchantDashboard(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.True(t, stats.BalanceAvailable.Equal(decimal.RequireFromString("12.5")))
	assert.Nil(t, stats.Subscription)
	assert.Zero(t, stats.TotalTransactions)
}
