// Package testutil provides database fixtures shared by service and handler tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sitex/internal/models"
	"sitex/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a migrated in-memory SQLite database closed with the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repositories.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func SeedUser(t *testing.T, db *gorm.DB, username string, roles ...models.Role) *models.User {
	t.Helper()
	u := &models.User{Username: username, Password: "x", Roles: models.NewRoleSet(roles...)}
	require.NoError(t, repositories.NewUserRepository(db, nil).Create(context.Background(), u))
	return u
}

// SeedMerchant creates an onboarded merchant owned by a fresh user.
func SeedMerchant(t *testing.T, db *gorm.DB, username, balance string) (*models.User, *models.Merchant) {
	t.Helper()
	u := SeedUser(t, db, username, models.RoleMerchant)
	m := &models.Merchant{
		OwnerID:          u.ID,
		Name:             fmt.Sprintf("%s store", username),
		OnboardingStep:   models.StepCompleted,
		Status:           models.MerchantActive,
		BalanceAvailable: decimal.RequireFromString(balance),
	}
	require.NoError(t, repositories.NewMerchantRepository(db).Create(context.Background(), m))
	return u, m
}

func SeedPackage(t *testing.T, db *gorm.DB, name string, maxLinks int, active bool) *models.MerchantPackage {
	t.Helper()
	p := &models.MerchantPackage{
		Name:                  name,
		MonthlyPrice:          decimal.NewFromInt(10),
		TransactionFeePercent: decimal.RequireFromString("2.50"),
		MaxPaymentLinks:       maxLinks,
		IsActive:              true,
	}
	repo := repositories.NewPackageRepository(db)
	require.NoError(t, repo.Create(context.Background(), p))
	if !active {
		require.NoError(t, db.Model(p).Update("is_active", false).Error)
		p.IsActive = false
	}
	return p
}

// Subscribe assigns pkg to the merchant for thirty days.
func Subscribe(t *testing.T, db *gorm.DB, merchantID, packageID uint) {
	t.Helper()
	now := time.Now()
	require.NoError(t, repositories.NewSubscriptionRepository(db).
		Upsert(context.Background(), merchantID, packageID, now, now.Add(30*24*time.Hour)))
}
