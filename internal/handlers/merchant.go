package handlers

import (
	"errors"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/services/merchant"
	"sitex/internal/services/subscription"
	"sitex/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

const settingsPath = "/merchant/settings/"

type MerchantHandler struct {
	merchantService     merchant.Service
	subscriptionService subscription.Service
}

func NewMerchantHandler(merchantService merchant.Service, subscriptionService subscription.Service) *MerchantHandler {
	return &MerchantHandler{
		merchantService:     merchantService,
		subscriptionService: subscriptionService,
	}
}

func (h *MerchantHandler) Settings(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	m, err := h.merchantService.Get(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Page(c, fiber.Map{"merchant": m})
}

func (h *MerchantHandler) UpdateSettings(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var input models.BasicInfoInput
	if err := parseBody(c, &input); err != nil {
		return response.FromError(c, err)
	}
	if _, err := h.merchantService.UpdateSettings(c.UserContext(), user.ID, input); err != nil {
		return response.FromError(c, err)
	}
	return response.RedirectSuccess(c, settingsPath, "Settings updated successfully.")
}

// Subscription shows the current subscription and the packages on offer.
func (h *MerchantHandler) Subscription(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	overview, err := h.merchantService.Subscription(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Page(c, fiber.Map{
		"subscription": overview.Subscription,
		"current":      overview.Current,
		"packages":     overview.Packages,
	})
}

func subscribeResult(c *fiber.Ctx, status int, success bool, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": success,
		"message": message,
	})
}

// Subscribe is the JSON subscribe API. Every outcome carries {success, message}.
func (h *MerchantHandler) Subscribe(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var input struct {
		PackageID uint `json:"package_id" form:"package_id"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return subscribeResult(c, fiber.StatusBadRequest, false, "Invalid request body.")
		}
	}

	pkg, err := h.subscriptionService.Subscribe(c.UserContext(), user.ID, input.PackageID)
	switch {
	case errors.Is(err, apperrors.ErrMerchantNotFound):
		return subscribeResult(c, fiber.StatusBadRequest, false, apperrors.ErrMerchantNotFound.Message)
	case errors.Is(err, apperrors.ErrPackageRequired):
		return subscribeResult(c, fiber.StatusBadRequest, false, apperrors.ErrPackageRequired.Message)
	case errors.Is(err, apperrors.ErrPackageNotFound):
		return subscribeResult(c, fiber.StatusNotFound, false, apperrors.ErrPackageNotFound.Message)
	case err != nil:
		return response.FromError(c, err)
	}
	return subscribeResult(c, fiber.StatusOK, true, "Subscribed to "+pkg.Name)
}
