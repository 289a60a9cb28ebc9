package messaging

import (
	"context"
	"regexp"
	"strconv"
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

func setup(t *testing.T) (Service, *gorm.DB, *testutil.Publisher, *models.MessagePackage) {
	t.Helper()
	db := testutil.NewDB(t)
	repo := repositories.NewMessagingRepository(db)
	pkg := &models.MessagePackage{Name: "Starter", MessageCount: 2, Price: decimal.NewFromInt(5), IsActive: true, PlanCode: "starter"}
	require.NoError(t, repo.CreatePackage(context.Background(), pkg))
	pub := (&testutil.Publisher{}).AcceptAll()
	return NewService(db, repositories.NewUserRepository(db, nil), repo, pub), db, pub, pkg
}

func TestCheckoutCreatesClientAndCredits(t *testing.T) {
	svc, db, _, pkg := setup(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "buyer")

	res, err := svc.Checkout(ctx, u.ID, models.CheckoutInput{Package: "starter"})
	require.NoError(t, err)
	assert.Equal(t, pkg.ID, res.Package.ID)
	assert.Equal(t, 2, res.Balance.TotalMessages)

	res, err = svc.Checkout(ctx, u.ID, models.CheckoutInput{Package: strconv.Itoa(int(pkg.ID))})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Balance.Remaining())

	client, err := svc.ClientForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, client.APIKey, 64)

	user, err := repositories.NewUserRepository(db, nil).GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, user.IsClient())

	var purchases int64
	require.NoError(t, db.Model(&models.MessagePurchase{}).Where("client_id = ?", client.ID).Count(&purchases).Error)
	assert.EqualValues(t, 2, purchases)

	_, err = svc.Checkout(ctx, u.ID, models.CheckoutInput{Package: "gold"})
	assert.ErrorIs(t, err, apperrors.ErrMessagePackageNotFound)
}

func TestSendConsumesCredits(t *testing.T) {
	svc, db, pub, _ := setup(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "sender")
	_, err := svc.Checkout(ctx, u.ID, models.CheckoutInput{Package: "starter"})
	require.NoError(t, err)
	client, err := svc.ClientForUser(ctx, u.ID)
	require.NoError(t, err)

	_, err = svc.Send(ctx, client, models.SendMessageInput{})
	assert.ErrorIs(t, err, apperrors.ErrPhoneRequired)

	res, err := svc.Send(ctx, client, models.SendMessageInput{Phone: "0912345678"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.RemainingMessages)
	assert.Regexp(t, regexp.MustCompile(`^Your OTP is \d{6}$`), res.Content)
	pub.AssertCalled(t, "Publish", mock.Anything, events.TopicWhatsAppOutbound, strconv.Itoa(int(res.MessageID)), mock.Anything)

	res, err = svc.Send(ctx, client, models.SendMessageInput{Phone: "0912345678", MessageType: "text", Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Content)
	assert.Zero(t, res.RemainingMessages)

	_, err = svc.Send(ctx, client, models.SendMessageInput{Phone: "0912345678", MessageType: "text", Message: "again"})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientMessages)

	usage, err := repositories.NewMessagingRepository(db).GetUsage(ctx, client.ID, UsageDay(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 2, usage.TotalMessagesSent)

	dash, err := svc.Dashboard(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, client.APIKey, dash.APIKey)
	assert.Len(t, dash.RecentMessages, 2)
	assert.Equal(t, 2, dash.UsedMessages)

	byKey, err := svc.ClientForKey(ctx, client.APIKey)
	require.NoError(t, err)
	assert.Equal(t, client.ID, byKey.ID)
	_, err = svc.ClientForKey(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrApiClientNotFound)
}

func TestSendRejectsUnknownType(t *testing.T) {
	svc, _, _, _ := setup(t)
	_, err := svc.Send(context.Background(), &models.ApiClient{ID: 1}, models.SendMessageInput{Phone: "1", MessageType: "fax"})
	var fields apperrors.FieldErrors
	assert.ErrorAs(t, err, &fields)
}
