// Package merchant serves the merchant's own profile settings and plan overview,
// and the admin review of merchant accounts.
package merchant

import (
	"context"
	"strings"
	"time"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/repositories"
	"sitex/internal/repositories/cache"
	"sitex/internal/services/subscription"
	"sitex/internal/validation"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// SubscriptionOverview is the current plan next to the plans on offer.
type SubscriptionOverview struct {
	Subscription *models.MerchantSubscription `json:"subscription"`
	Current      bool                         `json:"current"`
	Packages     []models.MerchantPackage     `json:"packages"`
}

type Service interface {
	Get(ctx context.Context, ownerID uint) (*models.Merchant, error)
	UpdateSettings(ctx context.Context, ownerID uint, input models.BasicInfoInput) (*models.Merchant, error)
	Subscription(ctx context.Context, ownerID uint) (*SubscriptionOverview, error)

	// List and SetStatus back the admin review of merchants.
	List(ctx context.Context, status string, offset, limit int) ([]models.Merchant, int64, error)
	SetStatus(ctx context.Context, actorID, merchantID uint, input models.MerchantStatusInput) (*models.Merchant, error)
}

type service struct {
	db            *gorm.DB
	merchants     *repositories.MerchantRepository
	subscriptions subscription.Service
	audit         *repositories.AuditRepository
	cache         *cache.CacheService
}

func NewService(
	db *gorm.DB,
	merchants *repositories.MerchantRepository,
	subscriptions subscription.Service,
	audit *repositories.AuditRepository,
	cacheService *cache.CacheService,
) Service {
	return &service{
		db:            db,
		merchants:     merchants,
		subscriptions: subscriptions,
		audit:         audit,
		cache:         cacheService,
	}
}

func (s *service) Get(ctx context.Context, ownerID uint) (*models.Merchant, error) {
	return s.merchants.GetByOwner(ctx, ownerID)
}

func (s *service) UpdateSettings(ctx context.Context, ownerID uint, input models.BasicInfoInput) (*models.Merchant, error) {
	v := validation.New()
	v.Struct(&input)
	if err := v.Err(); err != nil {
		return nil, err
	}
	m, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	m.Name = strings.TrimSpace(input.Name)
	m.Phone = strings.TrimSpace(input.Phone)
	m.Email = strings.TrimSpace(input.Email)
	m.City = strings.TrimSpace(input.City)
	m.Address = strings.TrimSpace(input.Address)
	err = s.merchants.UpdateFields(ctx, m.ID, map[string]interface{}{
		"name":    m.Name,
		"phone":   m.Phone,
		"email":   m.Email,
		"city":    m.City,
		"address": m.Address,
	})
	if err != nil {
		return nil, err
	}
	log.Infof("merchant %d updated settings", m.ID)
	return m, nil
}

func (s *service) Subscription(ctx context.Context, ownerID uint) (*SubscriptionOverview, error) {
	m, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sub, err := s.subscriptions.Current(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	packages, err := s.subscriptions.ListPackages(ctx)
	if err != nil {
		return nil, err
	}
	return &SubscriptionOverview{Subscription: sub, Current: sub.Current(time.Now()), Packages: packages}, nil
}

func (s *service) List(ctx context.Context, status string, offset, limit int) ([]models.Merchant, int64, error) {
	return s.merchants.List(ctx, models.MerchantStatus(strings.TrimSpace(status)), offset, limit)
}

// SetStatus approves or suspends a merchant. Draft merchants cannot be moved
// until they finish onboarding.
func (s *service) SetStatus(ctx context.Context, actorID, merchantID uint, input models.MerchantStatusInput) (*models.Merchant, error) {
	v := validation.New()
	v.Struct(&input)
	if err := v.Err(); err != nil {
		return nil, err
	}
	next := models.MerchantStatus(input.Status)

	var m *models.Merchant
	err := repositories.ExecuteInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		if m, err = s.merchants.WithTx(tx).GetByID(ctx, merchantID); err != nil {
			return err
		}
		from := m.Status
		if !from.CanTransition(next) {
			return apperrors.ErrMerchantTransition
		}
		ok, err := s.merchants.WithTx(tx).TransitionStatus(ctx, m.ID, from, next)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrMerchantTransition
		}
		m.Status = next
		return s.audit.WithTx(tx).Record(ctx, &actorID, "merchant.status", map[string]interface{}{
			"merchant_id": m.ID,
			"from":        from,
			"to":          next,
		})
	})
	if err != nil {
		return nil, err
	}
	if err := s.cache.InvalidateMerchantAccess(ctx, m.OwnerID); err != nil {
		log.Warnf("invalidate merchant access for user %d: %v", m.OwnerID, err)
	}
	log.Infof("merchant %d moved to %s by user %d", m.ID, m.Status, actorID)
	return m, nil
}
