// Package subscription assigns merchants to packages. Each merchant holds at
// most one subscription row, overwritten on every re-subscribe.
package subscription

import (
	"context"
	"time"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/repositories"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

const DefaultTerm = 30 * 24 * time.Hour

type Service interface {
	// Assign upserts the subscription inside tx. The package must be active.
	Assign(ctx context.Context, tx *gorm.DB, merchantID, packageID uint) (*models.MerchantPackage, error)
	// Subscribe is the standalone subscribe action for the owner's merchant.
	Subscribe(ctx context.Context, ownerID, packageID uint) (*models.MerchantPackage, error)
	Current(ctx context.Context, merchantID uint) (*models.MerchantSubscription, error)
	ListPackages(ctx context.Context) ([]models.MerchantPackage, error)
}

type service struct {
	db            *gorm.DB
	merchants     *repositories.MerchantRepository
	packages      *repositories.PackageRepository
	subscriptions *repositories.SubscriptionRepository
	term          time.Duration
	now           func() time.Time
}

func NewService(
	db *gorm.DB,
	merchants *repositories.MerchantRepository,
	packages *repositories.PackageRepository,
	subscriptions *repositories.SubscriptionRepository,
	term time.Duration,
) Service {
	if term <= 0 {
		term = DefaultTerm
	}
	return &service{
		db:            db,
		merchants:     merchants,
		packages:      packages,
		subscriptions: subscriptions,
		term:          term,
		now:           time.Now,
	}
}

func (s *service) Assign(ctx context.Context, tx *gorm.DB, merchantID, packageID uint) (*models.MerchantPackage, error) {
	if packageID == 0 {
		return nil, apperrors.ErrPackageRequired
	}
	pkg, err := s.packages.WithTx(tx).GetActive(ctx, packageID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.subscriptions.WithTx(tx).Upsert(ctx, merchantID, pkg.ID, now, now.Add(s.term)); err != nil {
		return nil, err
	}
	log.Infof("merchant %d subscribed to package %d until %s", merchantID, pkg.ID, now.Add(s.term).Format(time.RFC3339))
	return pkg, nil
}

func (s *service) Subscribe(ctx context.Context, ownerID, packageID uint) (*models.MerchantPackage, error) {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if packageID == 0 {
		return nil, apperrors.ErrPackageRequired
	}
	var pkg *models.MerchantPackage
	err = repositories.ExecuteInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		pkg, err = s.Assign(ctx, tx, merchant.ID, packageID)
		return err
	})
	return pkg, err
}

func (s *service) Current(ctx context.Context, merchantID uint) (*models.MerchantSubscription, error) {
	return s.subscriptions.GetByMerchant(ctx, merchantID)
}

func (s *service) ListPackages(ctx context.Context) ([]models.MerchantPackage, error) {
	return s.packages.ListActive(ctx)
}
