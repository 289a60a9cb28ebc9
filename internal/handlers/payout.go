package handlers

import (
	"errors"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/services/payout"
	"sitex/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

const payoutsPath = "/merchant/payouts/"

type PayoutHandler struct {
	payoutService payout.Service
}

func NewPayoutHandler(payoutService payout.Service) *PayoutHandler {
	return &PayoutHandler{
		payoutService: payoutService,
	}
}

func (h *PayoutHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	payouts, err := h.payoutService.List(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Page(c, fiber.Map{"payouts": payouts})
}

// Request submits a payout. A rejected request answers with the error and the
// existing payouts so both can be shown together.
func (h *PayoutHandler) Request(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var input models.PayoutInput
	if err := parseBody(c, &input); err != nil {
		return response.FromError(c, err)
	}

	ctx := c.UserContext()
	_, err = h.payoutService.Request(ctx, user.ID, input)
	if err == nil {
		return response.RedirectSuccess(c, payoutsPath, "Payout request submitted.")
	}

	de, ok := apperrors.As(err)
	if !ok || errors.Is(err, apperrors.ErrMerchantNotFound) {
		return response.FromError(c, err)
	}
	payouts, listErr := h.payoutService.List(ctx, user.ID)
	if listErr != nil {
		return response.FromError(c, listErr)
	}
	return c.Status(de.Status).JSON(fiber.Map{
		"error":   de.Message,
		"code":    de.Code,
		"payouts": payouts,
	})
}
