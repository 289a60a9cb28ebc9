package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"sitex/internal/config"
	"sitex/internal/models"
	"sitex/internal/repositories"
	"sitex/internal/services/documents"
	"sitex/internal/services/events"
	"sitex/internal/testutil"
	"sitex/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testApp struct {
	t      *testing.T
	app    *fiber.App
	db     *gorm.DB
	tokens *utils.TokenManager
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := &config.Config{
		Env:              "test",
		PublicBaseURL:    "http://pay.test",
		JWTSecret:        "test-secret",
		AccessTokenTTL:   time.Minute,
		RefreshTokenTTL:  time.Hour,
		SubscriptionTerm: 30 * 24 * time.Hour,
	}
	app := fiber.New()
	SetupRoutes(app, Deps{
		Config:    cfg,
		DB:        db,
		Publisher: events.NoopPublisher{},
		Documents: documents.NewLocalStore(t.TempDir()),
	})
	return &testApp{
		t:      t,
		app:    app,
		db:     db,
		tokens: utils.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
	}
}

func (a *testApp) token(user *models.User) string {
	a.t.Helper()
	stored, err := repositories.NewUserRepository(a.db, nil).GetByID(context.Background(), user.ID)
	require.NoError(a.t, err)
	access, _, err := a.tokens.GenerateTokens(models.ClaimsFor(stored))
	require.NoError(a.t, err)
	return access
}

func (a *testApp) send(req *http.Request, token string) *http.Response {
	a.t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	return resp
}

func (a *testApp) get(path, token string) *http.Response {
	return a.send(httptest.NewRequest(http.MethodGet, path, nil), token)
}

func (a *testApp) postForm(path, token string, form url.Values) *http.Response {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return a.send(req, token)
}

func (a *testApp) postJSON(path, token string, body interface{}) *http.Response {
	raw, err := json.Marshal(body)
	require.NoError(a.t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return a.send(req, token)
}

func (a *testApp) postFile(path, token, field, filename string) *http.Response {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(a.t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(a.t, err)
	require.NoError(a.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return a.send(req, token)
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return body
}

func assertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, location, resp.Header.Get(fiber.HeaderLocation))
}

func TestEveryRouteHasAnAccessClass(t *testing.T) {
	for _, r := range Table(Handlers{}) {
		assert.NotEqual(t, "unset", r.Access.String(), "%s %s", r.Method, r.Path)
	}
}

func TestGateOnMerchantRoutes(t *testing.T) {
	a := newTestApp(t)
	client := testutil.SeedUser(t, a.db, "client", models.RoleClient)
	pending := testutil.SeedUser(t, a.db, "pending", models.RoleMerchant)
	merchant, _ := testutil.SeedMerchant(t, a.db, "acme", "0")

	resp := a.get("/merchant/dashboard/", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = a.get("/merchant/dashboard/", a.token(client))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Access denied. Merchant account required.", decode(t, resp)["error"])

	assertRedirect(t, a.get("/merchant/payouts/", a.token(pending)), "/merchant/onboarding/")

	resp = a.get("/merchant/dashboard/", a.token(merchant))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = a.get("/merchant/onboarding/", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = a.get("/pay/unknown/", "")
	assert.Equal(t, fiber.StatusGone, resp.StatusCode)
}

func TestOnboardingOverHTTP(t *testing.T) {
	a := newTestApp(t)
	pkg := testutil.SeedPackage(t, a.db, "Starter", 5, true)

	resp := a.postJSON("/accounts/register/", "", map[string]string{"username": "amina", "password": "S3cure-pass!"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	data := decode(t, resp)["data"].(map[string]interface{})
	token := data["access_token"].(string)
	require.NotEmpty(t, token)

	resp = a.get("/merchant/onboarding/", token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "basic_info", decode(t, resp)["current_step"])

	assertRedirect(t, a.get("/merchant/onboarding/?step=bank_details", token), "/merchant/onboarding/?step=basic_info")
	assertRedirect(t, a.get("/merchant/onboarding/?step=nonsense", token), "/merchant/onboarding/?step=basic_info")

	resp = a.postForm("/merchant/onboarding/?step=basic_info", token, url.Values{"name": {"Amina Crafts"}, "phone": {"0912345678"}})
	assertRedirect(t, resp, "/merchant/onboarding/?step=verification")
	assertRedirect(t, a.get("/merchant/dashboard/", token), "/merchant/onboarding/?step=verification")

	resp = a.postForm("/merchant/onboarding/?step=subscription", token, url.Values{"package_id": {fmt.Sprint(pkg.ID)}})
	assertRedirect(t, resp, "/merchant/onboarding/")

	resp = a.postFile("/merchant/onboarding/?step=verification", token, "id_document", "passport.pdf")
	assertRedirect(t, resp, "/merchant/onboarding/?step=bank_details")

	resp = a.postForm("/merchant/onboarding/?step=bank_details", token, url.Values{"lypay_number": {"0912345678"}})
	assertRedirect(t, resp, "/merchant/onboarding/?step=subscription")

	resp = a.postForm("/merchant/onboarding/?step=subscription", token, url.Values{"package_id": {fmt.Sprint(pkg.ID)}})
	assertRedirect(t, resp, "/merchant/dashboard/")

	assertRedirect(t, a.get("/merchant/onboarding/", token), "/merchant/dashboard/")
	resp = a.get("/merchant/dashboard/", token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestOnboardingValidationErrors(t *testing.T) {
	a := newTestApp(t)
	user := testutil.SeedUser(t, a.db, "amina", models.RoleClient)
	token := a.token(user)

	resp := a.postForm("/merchant/onboarding/?step=basic_info", token, url.Values{"name": {"Amina"}})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	fields := decode(t, resp)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "phone")
}

func TestPaymentScenarioOverHTTP(t *testing.T) {
	a := newTestApp(t)
	owner, m := testutil.SeedMerchant(t, a.db, "acme", "0")
	token := a.token(owner)

	resp := a.postForm("/merchant/payment-links/", token, url.Values{"title": {"Order 17"}, "amount": {"50.00"}})
	assertRedirect(t, resp, "/merchant/payment-links/")

	resp = a.get("/merchant/payment-links/", token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	links := decode(t, resp)["data"].([]interface{})
	require.Len(t, links, 1)
	link := links[0].(map[string]interface{})
	reference := link["reference"].(string)
	assert.Equal(t, "http://pay.test/pay/"+reference+"/", link["full_url"])

	resp = a.get("/pay/"+reference+"/", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode(t, resp)["valid"])

	resp = a.send(httptest.NewRequest(http.MethodPost, "/pay/"+reference+"/", nil), "")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	receipt := resp.Header.Get(fiber.HeaderLocation)
	assert.True(t, strings.HasPrefix(receipt, "/payment-success/"))

	assertRedirect(t, a.get("/pay/"+reference+"/", ""), receipt)
	assertRedirect(t, a.send(httptest.NewRequest(http.MethodPost, "/pay/"+reference+"/", nil), ""), receipt)

	resp = a.get(receipt, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	view := decode(t, resp)["data"].(map[string]interface{})
	assert.Equal(t, "acme store", view["merchant_name"])
	assert.Equal(t, "Order 17", view["title"])

	resp = a.postForm("/merchant/payouts/", token, url.Values{"amount": {"30"}})
	assertRedirect(t, resp, "/merchant/payouts/")

	resp = a.postForm("/merchant/payouts/", token, url.Values{"amount": {"25"}})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "Invalid amount. Must be positive and <= available balance.", body["error"])
	assert.Len(t, body["payouts"], 1)

	stored, err := repositories.NewMerchantRepository(a.db).GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.True(t, stored.BalanceAvailable.Equal(decimal.NewFromInt(20)), stored.BalanceAvailable.String())

	var count int64
	require.NoError(t, a.db.Model(&models.Transaction{}).Where("merchant_id = ?", m.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestInvoiceFormArrays(t *testing.T) {
	a := newTestApp(t)
	owner, m := testutil.SeedMerchant(t, a.db, "acme", "0")
	token := a.token(owner)

	form := url.Values{
		"invoice_number":     {"INV-1"},
		"item_description[]": {"Design", "Hosting"},
		"item_quantity[]":    {"2", "1"},
		"item_unit_price[]":  {"100.00", "25.50"},
	}
	assertRedirect(t, a.postForm("/merchant/invoices/create/", token, form), "/merchant/invoices/")

	var inv models.MerchantInvoice
	require.NoError(t, a.db.Preload("Items").Where("merchant_id = ?", m.ID).First(&inv).Error)
	assert.Len(t, inv.Items, 2)
	assert.True(t, inv.TotalAmount.Equal(decimal.RequireFromString("225.50")), inv.TotalAmount.String())
}

func TestSubscribeAPI(t *testing.T) {
	a := newTestApp(t)
	nobody := testutil.SeedUser(t, a.db, "nobody", models.RoleClient)
	owner, _ := testutil.SeedMerchant(t, a.db, "acme", "0")
	active := testutil.SeedPackage(t, a.db, "Pro", 20, true)
	retired := testutil.SeedPackage(t, a.db, "Legacy", 5, false)

	tests := []struct {
		name    string
		user    *models.User
		body    map[string]interface{}
		status  int
		success bool
		message string
	}{
		{"no merchant", nobody, map[string]interface{}{"package_id": active.ID}, fiber.StatusBadRequest, false, "No merchant found."},
		{"missing package", owner, map[string]interface{}{}, fiber.StatusBadRequest, false, "Package ID is required."},
		{"inactive package", owner, map[string]interface{}{"package_id": retired.ID}, fiber.StatusNotFound, false, "Package not found."},
		{"subscribed", owner, map[string]interface{}{"package_id": active.ID}, fiber.StatusOK, true, "Subscribed to Pro"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := a.postJSON("/api/subscribe/", a.token(tt.user), tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode(t, resp)
			assert.Equal(t, tt.success, body["success"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}
