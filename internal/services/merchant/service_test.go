package merchant

import (
	"context"
	"testing"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/repositories"
	"sitex/internal/services/subscription"
	"sitex/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsAndSubscription(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	merchants := repositories.NewMerchantRepository(db)
	packages := repositories.NewPackageRepository(db)
	subs := subscription.NewService(db, merchants, packages, repositories.NewSubscriptionRepository(db), 0)
	svc := NewService(db, merchants, subs, repositories.NewAuditRepository(db), nil)

	owner, m := testutil.SeedMerchant(t, db, "acme", "0")
	pkg := testutil.SeedPackage(t, db, "Pro", 20, true)

	updated, err := svc.UpdateSettings(ctx, owner.ID, models.BasicInfoInput{Name: " New Name ", Phone: "0911111111", City: "Benghazi"})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)

	stored, err := svc.Get(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Benghazi", stored.City)
	assert.Equal(t, m.Slug, stored.Slug)

	_, err = svc.UpdateSettings(ctx, owner.ID, models.BasicInfoInput{Name: "x"})
	var fields apperrors.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "phone")

	overview, err := svc.Subscription(ctx, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, overview.Subscription)
	assert.False(t, overview.Current)
	assert.Len(t, overview.Packages, 1)

	_, err = subs.Subscribe(ctx, owner.ID, pkg.ID)
	require.NoError(t, err)
	overview, err = svc.Subscription(ctx, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, overview.Subscription)
	assert.True(t, overview.Current)
	assert.Equal(t, pkg.ID, overview.Subscription.PackageID)
}

func TestSetStatus(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	merchants := repositories.NewMerchantRepository(db)
	audit := repositories.NewAuditRepository(db)
	subs := subscription.NewService(db, merchants, repositories.NewPackageRepository(db), repositories.NewSubscriptionRepository(db), 0)
	svc := NewService(db, merchants, subs, audit, nil)

	admin := testutil.SeedUser(t, db, "root", models.RoleAdmin)
	_, m := testutil.SeedMerchant(t, db, "acme", "0")
	require.NoError(t, merchants.UpdateFields(ctx, m.ID, map[string]interface{}{"status": models.MerchantPending}))

	_, err := svc.SetStatus(ctx, admin.ID, m.ID, models.MerchantStatusInput{Status: "draft"})
	var fields apperrors.FieldErrors
	require.ErrorAs(t, err, &fields)

	updated, err := svc.SetStatus(ctx, admin.ID, m.ID, models.MerchantStatusInput{Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, models.MerchantActive, updated.Status)

	_, err = svc.SetStatus(ctx, admin.ID, m.ID, models.MerchantStatusInput{Status: "active"})
	assert.ErrorIs(t, err, apperrors.ErrMerchantTransition)

	active, total, err := svc.List(ctx, "active", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, active, 1)
	assert.Equal(t, m.ID, active[0].ID)

	entries, err := audit.ListByAction(ctx, "merchant.status", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
