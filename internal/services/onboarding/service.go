// Package onboarding drives a merchant through the ordered wizard steps
// basic_info, verification, bank_details, subscription and completed.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/repositories"
	"sitex/internal/repositories/cache"
	"sitex/internal/services/documents"
	"sitex/internal/services/subscription"
	"sitex/internal/validation"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

type Service interface {
	// Begin returns the owner's merchant, creating a draft one on first access.
	Begin(ctx context.Context, ownerID uint) (*models.Merchant, error)
	View(ctx context.Context, ownerID uint, requested string) (*StepView, error)
	SubmitBasicInfo(ctx context.Context, ownerID uint, input models.BasicInfoInput) (*models.Merchant, error)
	SubmitVerification(ctx context.Context, ownerID uint, upload VerificationUpload) (*models.Merchant, error)
	SubmitBankDetails(ctx context.Context, ownerID uint, input models.BankDetailsInput) (*models.Merchant, error)
	SubmitSubscription(ctx context.Context, ownerID uint, input models.SubscriptionInput) (*models.Merchant, error)
	Register(ctx context.Context, ownerID uint, input models.RegisterMerchantInput) (*models.Merchant, error)
	// Access returns the gate snapshot for ownerID, or nil when no merchant exists.
	Access(ctx context.Context, ownerID uint) (*cache.MerchantAccess, error)
}

type service struct {
	db            *gorm.DB
	users         *repositories.UserRepository
	merchants     *repositories.MerchantRepository
	packages      *repositories.PackageRepository
	subscriptions subscription.Service
	documents     documents.Store
	cache         *cache.CacheService
}

func NewService(
	db *gorm.DB,
	users *repositories.UserRepository,
	merchants *repositories.MerchantRepository,
	packages *repositories.PackageRepository,
	subscriptions subscription.Service,
	store documents.Store,
	cacheService *cache.CacheService,
) Service {
	return &service{
		db:            db,
		users:         users,
		merchants:     merchants,
		packages:      packages,
		subscriptions: subscriptions,
		documents:     store,
		cache:         cacheService,
	}
}

func (s *service) Begin(ctx context.Context, ownerID uint) (*models.Merchant, error) {
	m, err := s.merchants.GetByOwner(ctx, ownerID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, apperrors.ErrMerchantNotFound) {
		return nil, err
	}

	m = &models.Merchant{
		OwnerID:        ownerID,
		OnboardingStep: models.StepBasicInfo,
		Status:         models.MerchantDraft,
	}
	if err := s.merchants.Create(ctx, m); err != nil {
		// Lost a race with a concurrent first visit.
		if existing, getErr := s.merchants.GetByOwner(ctx, ownerID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	log.Infof("created draft merchant %d for user %d", m.ID, ownerID)
	s.invalidate(ctx, ownerID, false)
	return m, nil
}

// resolveStep picks the step to serve. Unknown steps fall back to basic_info and
// steps ahead of the persisted progress fall back to the persisted step.
func resolveStep(m *models.Merchant, requested string) (models.OnboardingStep, bool) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return m.OnboardingStep, false
	}
	step, ok := models.ParseOnboardingStep(requested)
	if !ok {
		return models.StepBasicInfo, true
	}
	if step.After(m.OnboardingStep) {
		return m.OnboardingStep, true
	}
	return step, false
}

func alreadyCompleted(m *models.Merchant) bool {
	return m.Status != models.MerchantDraft && m.OnboardingStep == models.StepCompleted
}

func (s *service) View(ctx context.Context, ownerID uint, requested string) (*StepView, error) {
	m, err := s.Begin(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	view := &StepView{Merchant: m, Steps: models.OnboardingSteps}
	if alreadyCompleted(m) {
		view.Step = models.StepCompleted
		view.Completed = true
		return view, nil
	}
	view.Step, view.Redirect = resolveStep(m, requested)
	if view.Step == models.StepSubscription && !view.Redirect {
		if view.Packages, err = s.packages.ListActive(ctx); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// submit locks the merchant, checks the step is reachable, applies fn and
// advances onboarding_step without ever moving it backwards.
func (s *service) submit(ctx context.Context, ownerID uint, step models.OnboardingStep, fn func(tx *gorm.DB, m *models.Merchant) error) (*models.Merchant, error) {
	if _, err := s.Begin(ctx, ownerID); err != nil {
		return nil, err
	}

	var merchant *models.Merchant
	err := repositories.ExecuteInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		m, err := s.merchants.WithTx(tx).GetByOwnerForUpdate(ctx, ownerID)
		if err != nil {
			return err
		}
		if alreadyCompleted(m) {
			return apperrors.ErrInvalidStepTransition.WithMessage("Onboarding already completed!")
		}
		if step.After(m.OnboardingStep) {
			return apperrors.ErrStepAhead
		}
		if err := fn(tx, m); err != nil {
			return err
		}
		if next, ok := step.Next(); ok && next.After(m.OnboardingStep) {
			m.OnboardingStep = next
		}
		if err := s.merchants.WithTx(tx).Save(ctx, m); err != nil {
			return err
		}
		merchant = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Infof("merchant %d submitted %s, now at %s", merchant.ID, step, merchant.OnboardingStep)
	s.invalidate(ctx, ownerID, step == models.StepBasicInfo)
	return merchant, nil
}

func (s *service) SubmitBasicInfo(ctx context.Context, ownerID uint, input models.BasicInfoInput) (*models.Merchant, error) {
	v := validation.New()
	v.Struct(&input)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return s.submit(ctx, ownerID, models.StepBasicInfo, func(tx *gorm.DB, m *models.Merchant) error {
		applyBasicInfo(m, input)
		return s.users.WithTx(tx).GrantRole(ctx, ownerID, models.RoleMerchant)
	})
}

func applyBasicInfo(m *models.Merchant, input models.BasicInfoInput) {
	name := strings.TrimSpace(input.Name)
	if m.Status == models.MerchantDraft && name != m.Name {
		// Drafts start without a name; derive the slug from the real one.
		m.Slug = ""
	}
	m.Name = name
	m.Phone = strings.TrimSpace(input.Phone)
	m.Email = strings.TrimSpace(input.Email)
	m.City = strings.TrimSpace(input.City)
	m.Address = strings.TrimSpace(input.Address)
}

func (s *service) SubmitVerification(ctx context.Context, ownerID uint, upload VerificationUpload) (*models.Merchant, error) {
	v := validation.New()
	if upload.IDDocument == nil {
		v.AddError("id_document", apperrors.ErrDocumentRequired.Message)
	} else {
		v.DocumentName("id_document", upload.IDDocument.Filename)
	}
	if upload.BusinessLicense != nil {
		v.DocumentName("business_license", upload.BusinessLicense.Filename)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	m, err := s.Begin(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if models.StepVerification.After(m.OnboardingStep) {
		return nil, apperrors.ErrStepAhead
	}
	idKey, err := s.store(ctx, documents.KindIDDocument, m.ID, upload.IDDocument)
	if err != nil {
		return nil, err
	}
	licenseKey, err := s.store(ctx, documents.KindBusinessLicense, m.ID, upload.BusinessLicense)
	if err != nil {
		return nil, err
	}

	return s.submit(ctx, ownerID, models.StepVerification, func(_ *gorm.DB, m *models.Merchant) error {
		m.IDDocument = idKey
		if licenseKey != "" {
			m.BusinessLicense = licenseKey
		}
		return nil
	})
}

func (s *service) store(ctx context.Context, kind string, merchantID uint, u *Upload) (string, error) {
	if u == nil {
		return "", nil
	}
	key, err := s.documents.Save(ctx, kind, merchantID, u.Filename, u.Body, u.Size)
	if err != nil {
		return "", fmt.Errorf("store %s document: %w", kind, err)
	}
	return key, nil
}

func (s *service) SubmitBankDetails(ctx context.Context, ownerID uint, input models.BankDetailsInput) (*models.Merchant, error) {
	v := validation.New()
	v.Struct(&input)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return s.submit(ctx, ownerID, models.StepBankDetails, func(_ *gorm.DB, m *models.Merchant) error {
		m.LypayNumber = strings.TrimSpace(input.LypayNumber)
		m.BankIBAN = strings.TrimSpace(input.BankIBAN)
		return nil
	})
}

// SubmitSubscription assigns the package and completes onboarding in one transaction.
func (s *service) SubmitSubscription(ctx context.Context, ownerID uint, input models.SubscriptionInput) (*models.Merchant, error) {
	v := validation.New()
	v.Struct(&input)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return s.submit(ctx, ownerID, models.StepSubscription, func(tx *gorm.DB, m *models.Merchant) error {
		if _, err := s.subscriptions.Assign(ctx, tx, m.ID, input.PackageID); err != nil {
			if errors.Is(err, apperrors.ErrPackageNotFound) {
				return apperrors.FieldErrors{"package_id": "Select a valid choice. That choice is not one of the available choices."}
			}
			return err
		}
		m.Status = models.MerchantPending
		return nil
	})
}

// Register creates a draft merchant with its basic fields and subscription in one request.
func (s *service) Register(ctx context.Context, ownerID uint, input models.RegisterMerchantInput) (*models.Merchant, error) {
	v := validation.New()
	v.Struct(&input)
	v.Check(input.PackageID != 0, "package_id", "Please select a package.")
	if err := v.Err(); err != nil {
		return nil, err
	}

	m := &models.Merchant{
		OwnerID:        ownerID,
		LypayNumber:    strings.TrimSpace(input.LypayNumber),
		OnboardingStep: models.StepBasicInfo,
		Status:         models.MerchantDraft,
	}
	applyBasicInfo(m, input.BasicInfoInput)

	err := repositories.ExecuteInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if _, err := s.merchants.WithTx(tx).GetByOwner(ctx, ownerID); err == nil {
			return apperrors.ErrMerchantExists
		} else if !errors.Is(err, apperrors.ErrMerchantNotFound) {
			return err
		}
		if err := s.merchants.WithTx(tx).Create(ctx, m); err != nil {
			return err
		}
		if err := s.users.WithTx(tx).GrantRole(ctx, ownerID, models.RoleMerchant); err != nil {
			return err
		}
		_, err := s.subscriptions.Assign(ctx, tx, m.ID, input.PackageID)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Infof("registered merchant %d for user %d", m.ID, ownerID)
	s.invalidate(ctx, ownerID, true)
	return m, nil
}

func (s *service) Access(ctx context.Context, ownerID uint) (*cache.MerchantAccess, error) {
	if access, err := s.cache.GetMerchantAccess(ctx, ownerID); err != nil {
		log.Warnf("merchant access cache read for user %d: %v", ownerID, err)
	} else if access != nil {
		return access, nil
	}

	gen, err := s.cache.MerchantAccessGeneration(ctx, ownerID)
	if err != nil {
		log.Warnf("merchant access cache generation for user %d: %v", ownerID, err)
	}
	m, err := s.merchants.GetByOwner(ctx, ownerID)
	if errors.Is(err, apperrors.ErrMerchantNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	access := &cache.MerchantAccess{MerchantID: m.ID, OnboardingStep: m.OnboardingStep, Status: m.Status}
	if gen == "" {
		return access, nil
	}
	if err := s.cache.CacheMerchantAccess(ctx, ownerID, gen, *access); err != nil {
		log.Warnf("merchant access cache write for user %d: %v", ownerID, err)
	}
	return access, nil
}

func (s *service) invalidate(ctx context.Context, ownerID uint, user bool) {
	if err := s.cache.InvalidateMerchantAccess(ctx, ownerID); err != nil {
		log.Warnf("merchant access cache invalidate for user %d: %v", ownerID, err)
	}
	if user {
		s.users.Invalidate(ctx, ownerID)
	}
}
