package handlers

import (
	"sitex/internal/models"
	"sitex/internal/services/merchant"
	"sitex/internal/services/payout"
	"sitex/internal/utils/pagination"
	"sitex/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves merchant review and payout processing for admins.
type AdminHandler struct {
	merchantService merchant.Service
	payoutService   payout.Service
}

func NewAdminHandler(merchantService merchant.Service, payoutService payout.Service) *AdminHandler {
	return &AdminHandler{
		merchantService: merchantService,
		payoutService:   payoutService,
	}
}

// ListMerchants pages through merchants, optionally filtered by ?status=
func (h *AdminHandler) ListMerchants(c *fiber.Ctx) error {
	p := pagination.ParseFromRequest(c)

	merchants, total, err := h.merchantService.List(c.UserContext(), c.Query("status"), p.Offset, p.Limit)
	if err != nil {
		return response.FromError(c, err)
	}

	p.Total = total
	return c.JSON(pagination.Response(p, merchants))
}

func (h *AdminHandler) UpdateMerchantStatus(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var input models.MerchantStatusInput
	if err := parseBody(c, &input); err != nil {
		return response.FromError(c, err)
	}
	m, err := h.merchantService.SetStatus(c.UserContext(), user.ID, id, input)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Merchant updated", m)
}

// UpdatePayoutStatus moves a payout along its lifecycle.
func (h *AdminHandler) UpdatePayoutStatus(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var input models.PayoutStatusInput
	if err := parseBody(c, &input); err != nil {
		return response.FromError(c, err)
	}
	p, err := h.payoutService.UpdateStatus(c.UserContext(), user.ID, id, input)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Payout updated", p)
}
