package handlers

import (
	"sitex/internal/models"
	"sitex/internal/services/paymentlink"
	"sitex/internal/utils/pagination"
	"sitex/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

const paymentLinksPath = "/merchant/payment-links/"

type PaymentLinkHandler struct {
	linkService paymentlink.Service
}

func NewPaymentLinkHandler(linkService paymentlink.Service) *PaymentLinkHandler {
	return &PaymentLinkHandler{
		linkService: linkService,
	}
}

func (h *PaymentLinkHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	p := pagination.ParseFromRequest(c)
	links, total, err := h.linkService.List(c.UserContext(), user.ID, p.Offset, p.Limit)
	if err != nil {
		return response.FromError(c, err)
	}
	p.Total = total
	return response.Page(c, pagination.Response(p, links))
}

func (h *PaymentLinkHandler) Get(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	link, err := h.linkService.Get(c.UserContext(), user.ID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Payment link", link)
}

func (h *PaymentLinkHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var input models.PaymentLinkInput
	if err := parseBody(c, &input); err != nil {
		return response.FromError(c, err)
	}
	link, err := h.linkService.Create(c.UserContext(), user.ID, input)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.RedirectSuccess(c, paymentLinksPath, "Payment link created: "+link.FullURL)
}

func (h *PaymentLinkHandler) Update(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var input models.PaymentLinkInput
	if err := parseBody(c, &input); err != nil {
		return response.FromError(c, err)
	}
	if _, err := h.linkService.Update(c.UserContext(), user.ID, id, input); err != nil {
		return response.FromError(c, err)
	}
	return response.RedirectSuccess(c, paymentLinksPath, "Payment link updated.")
}

func (h *PaymentLinkHandler) Delete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.linkService.Delete(c.UserContext(), user.ID, id); err != nil {
		return response.FromError(c, err)
	}
	return response.RedirectSuccess(c, paymentLinksPath, "Payment link deleted.")
}
