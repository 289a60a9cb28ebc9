package onboarding

import (
	"io"

	"sitex/internal/models"
)

// Upload is one received file.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// VerificationUpload carries the verification step documents.
type VerificationUpload struct {
	IDDocument      *Upload
	BusinessLicense *Upload
}

// StepView describes what the wizard should show.
type StepView struct {
	Merchant *models.Merchant        `json:"merchant"`
	Step     models.OnboardingStep   `json:"current_step"`
	Steps    []models.OnboardingStep `json:"steps"`

	// Packages is filled on the subscription step.
	Packages []models.MerchantPackage `json:"packages,omitempty"`

	// Completed is set when onboarding was already finished.
	Completed bool `json:"-"`

	// Redirect is set when the requested step must be replaced by Step.
	Redirect bool `json:"-"`
}
