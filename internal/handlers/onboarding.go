package handlers

import (
	"errors"
	"mime/multipart"

	apperrors "sitex/internal/errors"
	"sitex/internal/middleware"
	"sitex/internal/models"
	"sitex/internal/services/onboarding"
	"sitex/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

const dashboardPath = "/merchant/dashboard/"

type OnboardingHandler struct {
	onboardingService onboarding.Service
}

func NewOnboardingHandler(onboardingService onboarding.Service) *OnboardingHandler {
	return &OnboardingHandler{
		onboardingService: onboardingService,
	}
}

func stepURL(step models.OnboardingStep) string {
	return middleware.OnboardingPath + "?step=" + string(step)
}

// Show serves the current wizard step.
func (h *OnboardingHandler) Show(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	view, err := h.onboardingService.View(c.UserContext(), user.ID, c.Query("step"))
	if err != nil {
		return response.FromError(c, err)
	}
	if view.Completed {
		return c.Redirect(dashboardPath, fiber.StatusFound)
	}
	if view.Redirect {
		return c.Redirect(stepURL(view.Step), fiber.StatusFound)
	}
	return response.Page(c, fiber.Map{
		"merchant":     view.Merchant,
		"current_step": view.Step,
		"steps":        view.Steps,
		"packages":     view.Packages,
	})
}

// Submit handles the form of the step named by the step query parameter,
// or of the persisted step when none is given.
func (h *OnboardingHandler) Submit(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	ctx := c.UserContext()

	step, known := models.ParseOnboardingStep(c.Query("step"))
	if c.Query("step") == "" {
		view, err := h.onboardingService.View(ctx, user.ID, "")
		if err != nil {
			return response.FromError(c, err)
		}
		step, known = view.Step, true
	}
	if !known {
		return c.Redirect(stepURL(models.StepBasicInfo), fiber.StatusFound)
	}

	var merchant *models.Merchant
	switch step {
	case models.StepBasicInfo:
		var input models.BasicInfoInput
		if err := parseBody(c, &input); err != nil {
			return response.FromError(c, err)
		}
		merchant, err = h.onboardingService.SubmitBasicInfo(ctx, user.ID, input)
	case models.StepVerification:
		upload, closeAll, uploadErr := verificationUpload(c)
		if uploadErr != nil {
			return response.FromError(c, uploadErr)
		}
		defer closeAll()
		merchant, err = h.onboardingService.SubmitVerification(ctx, user.ID, upload)
	case models.StepBankDetails:
		var input models.BankDetailsInput
		if err := parseBody(c, &input); err != nil {
			return response.FromError(c, err)
		}
		merchant, err = h.onboardingService.SubmitBankDetails(ctx, user.ID, input)
	case models.StepSubscription:
		var input models.SubscriptionInput
		if err := parseBody(c, &input); err != nil {
			return response.FromError(c, err)
		}
		merchant, err = h.onboardingService.SubmitSubscription(ctx, user.ID, input)
	default:
		return c.Redirect(dashboardPath, fiber.StatusFound)
	}

	switch {
	case errors.Is(err, apperrors.ErrInvalidStepTransition):
		return response.RedirectInfo(c, dashboardPath, "Onboarding already completed!")
	case errors.Is(err, apperrors.ErrStepAhead):
		return response.RedirectError(c, middleware.OnboardingPath, apperrors.ErrStepAhead.Message)
	case err != nil:
		return response.FromError(c, err)
	}

	if merchant.OnboardingComplete() {
		return response.RedirectSuccess(c, dashboardPath, "Onboarding completed! Your account is pending review.")
	}
	next, _ := step.Next()
	return response.RedirectSuccess(c, stepURL(next), "Saved.")
}

// Register creates a merchant in one request and continues onboarding.
func (h *OnboardingHandler) Register(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var input models.RegisterMerchantInput
	if err := parseBody(c, &input); err != nil {
		return response.FromError(c, err)
	}
	if _, err := h.onboardingService.Register(c.UserContext(), user.ID, input); err != nil {
		return response.FromError(c, err)
	}
	return response.RedirectSuccess(c, middleware.OnboardingPath, "Merchant account created. Continue onboarding.")
}

// verificationUpload opens the uploaded documents. The returned func closes them.
func verificationUpload(c *fiber.Ctx) (onboarding.VerificationUpload, func(), error) {
	var (
		upload onboarding.VerificationUpload
		files  []multipart.File
	)
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	open := func(field string) (*onboarding.Upload, error) {
		fh, err := c.FormFile(field)
		if err != nil {
			// Missing files are reported by the service.
			return nil, nil
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		return &onboarding.Upload{Filename: fh.Filename, Size: fh.Size, Body: f}, nil
	}

	var err error
	if upload.IDDocument, err = open("id_document"); err != nil {
		closeAll()
		return upload, nil, err
	}
	if upload.BusinessLicense, err = open("business_license"); err != nil {
		closeAll()
		return upload, nil, err
	}
	return upload, closeAll, nil
}
