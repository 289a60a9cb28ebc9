package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedMerchant(t *testing.T, db *gorm.DB, balance string) *models.Merchant {
	t.Helper()
	ctx := context.Background()
	user := &models.User{Username: "owner", Password: "x", Roles: models.NewRoleSet(models.RoleMerchant)}
	require.NoError(t, NewUserRepository(db, nil).Create(ctx, user))
	m := &models.Merchant{
		OwnerID:          user.ID,
		Name:             "Acme Store",
		OnboardingStep:   models.StepCompleted,
		Status:           models.MerchantPending,
		BalanceAvailable: decimal.RequireFromString(balance),
	}
	require.NoError(t, NewMerchantRepository(db).Create(ctx, m))
	return m
}

func TestMerchantSlugIsUnique(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db, nil)
	merchants := NewMerchantRepository(db)

	var slugs []string
	for _, name := range []string{"u1", "u2"} {
		u := &models.User{Username: name, Password: "x"}
		require.NoError(t, users.Create(ctx, u))
		m := &models.Merchant{OwnerID: u.ID, Name: "Acme Store"}
		require.NoError(t, merchants.Create(ctx, m))
		slugs = append(slugs, m.Slug)
	}
	assert.Equal(t, "acme-store", slugs[0])
	assert.NotEqual(t, slugs[0], slugs[1])
	assert.Contains(t, slugs[1], "acme-store-")
}

func TestUnnamedDraftSlugs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db, nil)
	merchants := NewMerchantRepository(db)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		u := &models.User{Username: fmt.Sprintf("draft%d", i), Password: "x"}
		require.NoError(t, users.Create(ctx, u))
		m := &models.Merchant{OwnerID: u.ID, OnboardingStep: models.StepBasicInfo, Status: models.MerchantDraft}
		require.NoError(t, merchants.Create(ctx, m))
		assert.False(t, seen[m.Slug], m.Slug)
		seen[m.Slug] = true
	}
}

func TestMerchantCreditDebit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewMerchantRepository(db)
	m := seedMerchant(t, db, "20")

	require.NoError(t, repo.Credit(ctx, m.ID, decimal.NewFromInt(30)))

	ok, err := repo.Debit(ctx, m.ID, decimal.NewFromInt(60))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Debit(ctx, m.ID, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.BalanceAvailable.IsZero(), got.BalanceAvailable.String())
}

func TestPaymentLinkClaimOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := seedMerchant(t, db, "0")
	links := NewPaymentLinkRepository(db)

	link := &models.PaymentLink{MerchantID: m.ID, Title: "t", Amount: decimal.NewFromInt(5), Reference: "abc123abc123", IsActive: true}
	require.NoError(t, links.Create(ctx, link))

	won, err := links.Claim(ctx, link.ID)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = links.Claim(ctx, link.ID)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestPaymentLinkDeleteIsOwnerScoped(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := seedMerchant(t, db, "0")
	links := NewPaymentLinkRepository(db)

	link := &models.PaymentLink{MerchantID: m.ID, Title: "t", Amount: decimal.NewFromInt(5), Reference: "ref000000001", IsActive: true}
	require.NoError(t, links.Create(ctx, link))

	assert.ErrorIs(t, links.Delete(ctx, m.ID+1, link.ID), apperrors.ErrLinkNotFound)
	require.NoError(t, links.Delete(ctx, m.ID, link.ID))

	_, err := links.GetByReference(ctx, "ref000000001")
	assert.ErrorIs(t, err, apperrors.ErrLinkNotFound)

	exists, err := links.ReferenceExists(ctx, "ref000000001")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSubscriptionUpsertKeepsSingleRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := seedMerchant(t, db, "0")
	pkgs := NewPackageRepository(db)
	subs := NewSubscriptionRepository(db)

	basic := &models.MerchantPackage{Name: "Basic", MonthlyPrice: decimal.NewFromInt(10), TransactionFeePercent: decimal.NewFromInt(2), MaxPaymentLinks: 5, IsActive: true}
	pro := &models.MerchantPackage{Name: "Pro", MonthlyPrice: decimal.NewFromInt(50), TransactionFeePercent: decimal.NewFromInt(1), MaxPaymentLinks: 50, IsActive: true}
	require.NoError(t, pkgs.Create(ctx, basic))
	require.NoError(t, pkgs.Create(ctx, pro))

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, subs.Upsert(ctx, m.ID, basic.ID, now, now.Add(time.Hour)))
	later := now.Add(24 * time.Hour)
	require.NoError(t, subs.Upsert(ctx, m.ID, pro.ID, later, later.Add(30*24*time.Hour)))

	var count int64
	require.NoError(t, db.Model(&models.MerchantSubscription{}).Where("merchant_id = ?", m.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	sub, err := subs.GetByMerchant(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, pro.ID, sub.PackageID)
	assert.True(t, sub.IsActive)
	assert.WithinDuration(t, later.Add(30*24*time.Hour), sub.ExpiresAt, time.Second)
	assert.WithinDuration(t, now, sub.StartedAt, time.Second)
}

func TestMessagingBalance(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewMessagingRepository(db)

	client := &models.ApiClient{Name: "c", APIKey: "k1", IsActive: true}
	require.NoError(t, repo.CreateClient(ctx, client))

	ok, err := repo.ConsumeOne(ctx, client.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.AddMessages(ctx, client.ID, 1))
	require.NoError(t, repo.AddMessages(ctx, client.ID, 1))

	for i := 0; i < 2; i++ {
		ok, err = repo.ConsumeOne(ctx, client.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err = repo.ConsumeOne(ctx, client.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	b, err := repo.GetBalance(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, b.TotalMessages)
	assert.Equal(t, 0, b.Remaining())

	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.IncrementUsage(ctx, client.ID, day))
	require.NoError(t, repo.IncrementUsage(ctx, client.ID, day))
	usage, err := repo.GetUsage(ctx, client.ID, day)
	require.NoError(t, err)
	assert.Equal(t, 2, usage.TotalMessagesSent)
}
