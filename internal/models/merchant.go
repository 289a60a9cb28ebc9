package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OnboardingStep is the persisted position of a merchant in the onboarding wizard.
type OnboardingStep string

const (
	StepBasicInfo    OnboardingStep = "basic_info"
	StepVerification OnboardingStep = "verification"
	StepBankDetails  OnboardingStep = "bank_details"
	StepSubscription OnboardingStep = "subscription"
	StepCompleted    OnboardingStep = "completed"
)

// OnboardingSteps lists the steps in wizard order.
var OnboardingSteps = []OnboardingStep{
	StepBasicInfo,
	StepVerification,
	StepBankDetails,
	StepSubscription,
	StepCompleted,
}

var stepTransitions = map[OnboardingStep]OnboardingStep{
	StepBasicInfo:    StepVerification,
	StepVerification: StepBankDetails,
	StepBankDetails:  StepSubscription,
	StepSubscription: StepCompleted,
}

// ParseOnboardingStep reports whether s names a known step.
func ParseOnboardingStep(s string) (OnboardingStep, bool) {
	step := OnboardingStep(s)
	return step, step.Index() >= 0
}

// Index is the position of the step in OnboardingSteps, or -1.
func (s OnboardingStep) Index() int {
	for i, step := range OnboardingSteps {
		if step == s {
			return i
		}
	}
	return -1
}

// Next returns the step that follows s. Completed has no successor.
func (s OnboardingStep) Next() (OnboardingStep, bool) {
	next, ok := stepTransitions[s]
	return next, ok
}

// After reports whether s is strictly later in the wizard than other.
func (s OnboardingStep) After(other OnboardingStep) bool {
	return s.Index() > other.Index()
}

type MerchantStatus string

const (
	MerchantDraft     MerchantStatus = "draft"
	MerchantPending   MerchantStatus = "pending"
	MerchantActive    MerchantStatus = "active"
	MerchantSuspended MerchantStatus = "suspended"
)

var merchantTransitions = map[MerchantStatus][]MerchantStatus{
	MerchantPending:   {MerchantActive, MerchantSuspended},
	MerchantActive:    {MerchantSuspended},
	MerchantSuspended: {MerchantActive},
}

// CanTransition reports whether an admin may move a merchant from s to next.
func (s MerchantStatus) CanTransition(next MerchantStatus) bool {
	for _, allowed := range merchantTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Merchant struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	OwnerID          uint            `gorm:"uniqueIndex;not null" json:"owner_id"`
	Owner            *User           `gorm:"foreignKey:OwnerID" json:"-"`
	Name             string          `gorm:"size:200;not null" json:"name"`
	Slug             string          `gorm:"size:220;uniqueIndex" json:"slug"`
	Phone            string          `gorm:"size:20" json:"phone"`
	Email            string          `gorm:"size:254" json:"email"`
	City             string          `gorm:"size:100" json:"city"`
	Address          string          `json:"address"`
	IDDocument       string          `json:"id_document,omitempty"`
	BusinessLicense  string          `json:"business_license,omitempty"`
	IDVerified       bool            `gorm:"not null;default:false" json:"id_verified"`
	BusinessVerified bool            `gorm:"not null;default:false" json:"business_verified"`
	LypayNumber      string          `gorm:"size:20" json:"lypay_number"`
	BankIBAN         string          `gorm:"column:bank_iban;size:50" json:"bank_iban"`
	OnboardingStep   OnboardingStep  `gorm:"size:50;not null;default:'basic_info'" json:"onboarding_step"`
	Status           MerchantStatus  `gorm:"size:20;not null;default:'draft'" json:"status"`
	BalanceAvailable decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"balance_available"`
	BalanceOnHold    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"balance_on_hold"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OnboardingComplete reports whether the wizard has been finished.
func (m *Merchant) OnboardingComplete() bool {
	return m.OnboardingStep == StepCompleted
}

// BasicInfoInput is the first onboarding step and the settings form.
type BasicInfoInput struct {
	Name    string `json:"name" form:"name" validate:"required,max=200"`
	Phone   string `json:"phone" form:"phone" validate:"required,max=20"`
	Email   string `json:"email" form:"email" validate:"omitempty,email,max=254"`
	City    string `json:"city" form:"city" validate:"max=100"`
	Address string `json:"address" form:"address"`
}

type BankDetailsInput struct {
	LypayNumber string `json:"lypay_number" form:"lypay_number" validate:"max=20"`
	BankIBAN    string `json:"bank_iban" form:"bank_iban" validate:"max=50"`
}

type SubscriptionInput struct {
	PackageID uint `json:"package_id" form:"package_id" validate:"required"`
}

type MerchantStatusInput struct {
	Status string `json:"status" form:"status" validate:"required,oneof=active suspended"`
}

// RegisterMerchantInput creates a merchant in one request outside the wizard.
type RegisterMerchantInput struct {
	BasicInfoInput
	LypayNumber string `json:"lypay_number" form:"lypay_number" validate:"max=20"`
	PackageID   uint   `json:"package_id" form:"package_id"`
}
