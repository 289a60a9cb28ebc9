package onboarding

import (
	"context"
	"strings"
	"testing"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/repositories"
	"sitex/internal/services/documents"
	"sitex/internal/services/subscription"
	"sitex/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	users := repositories.NewUserRepository(db, nil)
	merchants := repositories.NewMerchantRepository(db)
	packages := repositories.NewPackageRepository(db)
	subs := subscription.NewService(db, merchants, packages, repositories.NewSubscriptionRepository(db), 0)
	return NewService(db, users, merchants, packages, subs, documents.NewLocalStore(t.TempDir()), nil), db
}

func basicInfo() models.BasicInfoInput {
	return models.BasicInfoInput{Name: "Acme Store", Phone: "0910000000", City: "Tripoli"}
}

func doc(name string) *Upload {
	return &Upload{Filename: name, Size: 3, Body: strings.NewReader("pdf")}
}

func TestBeginCreatesDraftOnce(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "zed")

	first, err := svc.Begin(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepBasicInfo, first.OnboardingStep)
	assert.Equal(t, models.MerchantDraft, first.Status)

	again, err := svc.Begin(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestViewResolvesRequestedStep(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "alice", models.RoleClient)

	view, err := svc.View(ctx, u.ID, "bank_details")
	require.NoError(t, err)
	assert.True(t, view.Redirect)
	assert.Equal(t, models.StepBasicInfo, view.Step)

	view, err = svc.View(ctx, u.ID, "bogus")
	require.NoError(t, err)
	assert.True(t, view.Redirect)
	assert.Equal(t, models.StepBasicInfo, view.Step)

	view, err = svc.View(ctx, u.ID, "")
	require.NoError(t, err)
	assert.False(t, view.Redirect)
	assert.Equal(t, models.StepBasicInfo, view.Step)
}

func TestBasicInfoReplacesDraftSlug(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "dina", models.RoleClient)

	draft, err := svc.Begin(ctx, u.ID)
	require.NoError(t, err)
	assert.Contains(t, draft.Slug, "merchant")

	m, err := svc.SubmitBasicInfo(ctx, u.ID, basicInfo())
	require.NoError(t, err)
	assert.Equal(t, "acme-store", m.Slug)
}

func TestFullWizard(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "bob", models.RoleClient)
	pkg := testutil.SeedPackage(t, db, "Basic", 5, true)

	m, err := svc.SubmitBasicInfo(ctx, u.ID, basicInfo())
	require.NoError(t, err)
	assert.Equal(t, models.StepVerification, m.OnboardingStep)
	assert.Equal(t, "acme-store", m.Slug)

	user, err := repositories.NewUserRepository(db, nil).GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, user.IsMerchant())

	m, err = svc.SubmitVerification(ctx, u.ID, VerificationUpload{IDDocument: doc("id.pdf")})
	require.NoError(t, err)
	assert.Equal(t, models.StepBankDetails, m.OnboardingStep)
	assert.NotEmpty(t, m.IDDocument)
	assert.Empty(t, m.BusinessLicense)

	m, err = svc.SubmitBankDetails(ctx, u.ID, models.BankDetailsInput{LypayNumber: "0920000000"})
	require.NoError(t, err)
	assert.Equal(t, models.StepSubscription, m.OnboardingStep)

	view, err := svc.View(ctx, u.ID, "subscription")
	require.NoError(t, err)
	require.Len(t, view.Packages, 1)

	m, err = svc.SubmitSubscription(ctx, u.ID, models.SubscriptionInput{PackageID: pkg.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StepCompleted, m.OnboardingStep)
	assert.Equal(t, models.MerchantPending, m.Status)

	var count int64
	require.NoError(t, db.Model(&models.MerchantSubscription{}).Where("merchant_id = ?", m.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	view, err = svc.View(ctx, u.ID, "basic_info")
	require.NoError(t, err)
	assert.True(t, view.Completed)
}

func TestSubmitAheadIsRejected(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "carol")

	_, err := svc.SubmitBankDetails(ctx, u.ID, models.BankDetailsInput{})
	assert.ErrorIs(t, err, apperrors.ErrStepAhead)

	_, err = svc.SubmitVerification(ctx, u.ID, VerificationUpload{IDDocument: doc("id.png")})
	assert.ErrorIs(t, err, apperrors.ErrStepAhead)
}

func TestResubmitDoesNotRegress(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "dave")

	_, err := svc.SubmitBasicInfo(ctx, u.ID, basicInfo())
	require.NoError(t, err)
	_, err = svc.SubmitVerification(ctx, u.ID, VerificationUpload{IDDocument: doc("id.jpg")})
	require.NoError(t, err)

	input := basicInfo()
	input.Name = "Renamed"
	m, err := svc.SubmitBasicInfo(ctx, u.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", m.Name)
	assert.Equal(t, models.StepBankDetails, m.OnboardingStep)
}

func TestVerificationRequiresDocument(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "erin")
	_, err := svc.SubmitBasicInfo(ctx, u.ID, basicInfo())
	require.NoError(t, err)

	_, err = svc.SubmitVerification(ctx, u.ID, VerificationUpload{})
	var fields apperrors.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "id_document")

	_, err = svc.SubmitVerification(ctx, u.ID, VerificationUpload{IDDocument: doc("id.exe")})
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, apperrors.ErrDocumentType.Message, fields["id_document"])
}

func TestBasicInfoValidation(t *testing.T) {
	svc, db := newService(t)
	u := testutil.SeedUser(t, db, "frank")

	_, err := svc.SubmitBasicInfo(context.Background(), u.ID, models.BasicInfoInput{Phone: "1"})
	var fields apperrors.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "This field is required.", fields["name"])
}

func TestSubscriptionRejectsInactivePackage(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "gina")
	pkg := testutil.SeedPackage(t, db, "Retired", 5, false)

	_, err := svc.SubmitBasicInfo(ctx, u.ID, basicInfo())
	require.NoError(t, err)
	_, err = svc.SubmitVerification(ctx, u.ID, VerificationUpload{IDDocument: doc("id.pdf")})
	require.NoError(t, err)
	_, err = svc.SubmitBankDetails(ctx, u.ID, models.BankDetailsInput{})
	require.NoError(t, err)

	_, err = svc.SubmitSubscription(ctx, u.ID, models.SubscriptionInput{PackageID: pkg.ID})
	var fields apperrors.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "package_id")

	m, err := svc.Begin(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepSubscription, m.OnboardingStep)
}

func TestRegister(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "hank", models.RoleClient)
	pkg := testutil.SeedPackage(t, db, "Pro", 50, true)

	input := models.RegisterMerchantInput{BasicInfoInput: basicInfo(), PackageID: pkg.ID}
	m, err := svc.Register(ctx, u.ID, input)
	require.NoError(t, err)
	assert.Equal(t, models.StepBasicInfo, m.OnboardingStep)

	_, err = svc.Register(ctx, u.ID, input)
	assert.ErrorIs(t, err, apperrors.ErrMerchantExists)

	access, err := svc.Access(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, access)
	assert.Equal(t, m.ID, access.MerchantID)

	none, err := svc.Access(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, none)
}
