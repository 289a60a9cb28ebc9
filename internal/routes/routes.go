// Package routes defines the API routing configuration.
// Every route is declared once in a table together with the class of caller
// it admits; the table is mounted behind the authentication middleware and
// the access gate.
package routes

import (
	"time"

	"sitex/internal/config"
	"sitex/internal/handlers"
	"sitex/internal/middleware"
	"sitex/internal/repositories"
	"sitex/internal/repositories/cache"
	"sitex/internal/services/auth"
	"sitex/internal/services/dashboard"
	"sitex/internal/services/documents"
	"sitex/internal/services/events"
	"sitex/internal/services/invoice"
	"sitex/internal/services/merchant"
	"sitex/internal/services/messaging"
	"sitex/internal/services/onboarding"
	"sitex/internal/services/payment"
	"sitex/internal/services/paymentlink"
	"sitex/internal/services/payout"
	"sitex/internal/services/subscription"
	"sitex/internal/services/transaction"
	"sitex/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

// Route is one entry of the routing table.
type Route struct {
	Method  string
	Path    string
	Access  middleware.Access
	Limited bool
	Handler fiber.Handler
}

// Handlers groups every HTTP handler the table refers to.
type Handlers struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Onboarding  *handlers.OnboardingHandler
	Dashboard   *handlers.DashboardHandler
	Links       *handlers.PaymentLinkHandler
	Payments    *handlers.PaymentHandler
	Transaction *handlers.TransactionHandler
	Invoices    *handlers.InvoiceHandler
	Payouts     *handlers.PayoutHandler
	Merchant    *handlers.MerchantHandler
	Messaging   *handlers.MessagingHandler
	Admin       *handlers.AdminHandler
}

// Table lists every route with its access class.
func Table(h Handlers) []Route {
	const (
		public   = middleware.AccessPublic
		authed   = middleware.AccessAuthenticated
		client   = middleware.AccessClient
		merchant = middleware.AccessMerchant
		admin    = middleware.AccessAdmin
		get      = fiber.MethodGet
		post     = fiber.MethodPost
	)
	return []Route{
		{get, "/health", public, false, h.Health.HealthCheck},
		{get, "/health/cache", admin, false, h.Health.CacheStats},

		// Accounts
		{post, "/accounts/register/", public, true, h.Auth.Register},
		{post, "/accounts/login/", public, true, h.Auth.Login},
		{post, "/accounts/refresh/", public, false, h.Auth.Refresh},
		{post, "/accounts/logout/", authed, false, h.Auth.Logout},
		{get, "/accounts/me/", authed, false, h.Auth.Me},

		// Onboarding is reachable before it is finished.
		{get, "/merchant/onboarding/", authed, false, h.Onboarding.Show},
		{post, "/merchant/onboarding/", authed, false, h.Onboarding.Submit},
		{post, "/merchant/register/", authed, false, h.Onboarding.Register},

		// Merchant area
		{get, "/merchant/dashboard/", merchant, false, h.Dashboard.GetMerchantDashboard},
		{get, "/merchant/analytics/", merchant, false, h.Dashboard.GetAnalytics},
		{get, "/merchant/payment-links/", merchant, false, h.Links.List},
		{post, "/merchant/payment-links/", merchant, false, h.Links.Create},
		{get, "/merchant/payment-links/:id/", merchant, false, h.Links.Get},
		{post, "/merchant/payment-links/edit/:id/", merchant, false, h.Links.Update},
		{post, "/merchant/payment-links/delete/:id/", merchant, false, h.Links.Delete},
		{get, "/merchant/transactions/", merchant, false, h.Transaction.List},
		{get, "/merchant/transactions/:id/", merchant, false, h.Transaction.Get},
		{post, "/merchant/transactions/:id/refund/", merchant, false, h.Transaction.Refund},
		{get, "/merchant/invoices/", merchant, false, h.Invoices.List},
		{post, "/merchant/invoices/create/", merchant, false, h.Invoices.Create},
		{get, "/merchant/invoices/:id/", merchant, false, h.Invoices.Get},
		{post, "/merchant/invoices/:id/edit/", merchant, false, h.Invoices.Update},
		{post, "/merchant/invoices/:id/delete/", merchant, false, h.Invoices.Delete},
		{get, "/merchant/payouts/", merchant, false, h.Payouts.List},
		{post, "/merchant/payouts/", merchant, false, h.Payouts.Request},
		{get, "/merchant/subscription/", merchant, false, h.Merchant.Subscription},
		{get, "/merchant/settings/", merchant, false, h.Merchant.Settings},
		{post, "/merchant/settings/", merchant, false, h.Merchant.UpdateSettings},
		{post, "/api/subscribe/", authed, false, h.Merchant.Subscribe},

		// Customer payment pages
		{get, "/pay/:reference/", public, false, h.Payments.Show},
		{post, "/pay/:reference/", public, true, h.Payments.Pay},
		{get, "/payment-success/:id/", public, false, h.Payments.Receipt},

		// WhatsApp credits
		{get, "/choose-package/", public, false, h.Messaging.Packages},
		{post, "/checkout/", authed, false, h.Messaging.Checkout},
		{get, "/client/dashboard/", client, false, h.Messaging.Dashboard},
		{post, "/send-otp/", client, false, h.Messaging.SendOTP},

		// Admin
		{get, "/admin/merchants/", admin, false, h.Admin.ListMerchants},
		{post, "/admin/merchants/:id/status/", admin, false, h.Admin.UpdateMerchantStatus},
		{post, "/admin/payouts/:id/status/", admin, false, h.Admin.UpdatePayoutStatus},
	}
}

// Register mounts routes. Identification runs for every request; each route
// then passes its access check, and limited routes the rate limiter first.
func Register(router fiber.Router, table []Route, auth *middleware.AuthMiddleware, gate *middleware.Gate, limit fiber.Handler) {
	router.Use(auth.Identify)
	for _, r := range table {
		chain := make([]fiber.Handler, 0, 3)
		if r.Limited && limit != nil {
			chain = append(chain, limit)
		}
		chain = append(chain, gate.Require(r.Access), r.Handler)
		router.Add(r.Method, r.Path, chain...)
	}
}

// NewLimiter allows five requests per minute per client address and route.
// A nil storage keeps counters in memory.
func NewLimiter(storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		Storage:    storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + ":" + c.Route().Path
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	})
}

// Deps are the long-lived resources the application is built from.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Cache     *cache.CacheService
	Publisher events.Publisher
	Documents documents.Store

	// LimiterStorage holds rate-limit counters; nil means in memory.
	LimiterStorage fiber.Storage
}

// SetupRoutes builds repositories, services and handlers and mounts the table.
func SetupRoutes(app *fiber.App, d Deps) {
	cfg := d.Config

	// Initialize repositories
	users := repositories.NewUserRepository(d.DB, d.Cache)
	merchants := repositories.NewMerchantRepository(d.DB)
	packages := repositories.NewPackageRepository(d.DB)
	subscriptions := repositories.NewSubscriptionRepository(d.DB)
	links := repositories.NewPaymentLinkRepository(d.DB)
	transactions := repositories.NewTransactionRepository(d.DB)
	payouts := repositories.NewPayoutRepository(d.DB)
	invoices := repositories.NewInvoiceRepository(d.DB)
	audit := repositories.NewAuditRepository(d.DB)
	messagingRepo := repositories.NewMessagingRepository(d.DB)

	// Initialize services in dependency order
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := auth.NewService(d.DB, users, messagingRepo, tokens)
	subscriptionService := subscription.NewService(d.DB, merchants, packages, subscriptions, cfg.SubscriptionTerm)
	onboardingService := onboarding.NewService(d.DB, users, merchants, packages, subscriptionService, d.Documents, d.Cache)
	merchantService := merchant.NewService(d.DB, merchants, subscriptionService, audit, d.Cache)
	linkService := paymentlink.NewService(d.DB, merchants, links, invoices, subscriptions, cfg.PublicBaseURL)
	paymentService := payment.NewService(d.DB, merchants, links, transactions, d.Publisher)
	transactionService := transaction.NewService(d.DB, merchants, transactions, audit, d.Publisher)
	payoutService := payout.NewService(d.DB, merchants, payouts, audit, d.Publisher)
	invoiceService := invoice.NewService(d.DB, merchants, invoices)
	dashboardService := dashboard.NewService(merchants, transactions, links, payouts, subscriptions)
	messagingService := messaging.NewService(d.DB, users, messagingRepo, d.Publisher)

	h := Handlers{
		Health:      handlers.NewHealthHandler(d.DB, d.Cache),
		Auth:        handlers.NewAuthHandler(authService, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.Env == "production"),
		Onboarding:  handlers.NewOnboardingHandler(onboardingService),
		Dashboard:   handlers.NewDashboardHandler(dashboardService),
		Links:       handlers.NewPaymentLinkHandler(linkService),
		Payments:    handlers.NewPaymentHandler(paymentService),
		Transaction: handlers.NewTransactionHandler(transactionService),
		Invoices:    handlers.NewInvoiceHandler(invoiceService),
		Payouts:     handlers.NewPayoutHandler(payoutService),
		Merchant:    handlers.NewMerchantHandler(merchantService, subscriptionService),
		Messaging:   handlers.NewMessagingHandler(messagingService),
		Admin:       handlers.NewAdminHandler(merchantService, payoutService),
	}

	Register(app, Table(h),
		middleware.NewAuthMiddleware(authService),
		middleware.NewGate(onboardingService),
		NewLimiter(d.LimiterStorage),
	)
}
