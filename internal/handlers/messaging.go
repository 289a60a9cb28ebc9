package handlers

import (
	"sitex/internal/middleware"
	"sitex/internal/models"
	"sitex/internal/services/messaging"
	"sitex/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

const clientDashboardPath = "/client/dashboard/"

// MessagingHandler serves the WhatsApp credit system.
type MessagingHandler struct {
	messagingService messaging.Service
}

func NewMessagingHandler(messagingService messaging.Service) *MessagingHandler {
	return &MessagingHandler{
		messagingService: messagingService,
	}
}

func (h *MessagingHandler) Packages(c *fiber.Ctx) error {
	pkgs, err := h.messagingService.Packages(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Page(c, fiber.Map{"packages": pkgs})
}

func (h *MessagingHandler) Checkout(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var input models.CheckoutInput
	if err := parseBody(c, &input); err != nil {
		return response.FromError(c, err)
	}
	result, err := h.messagingService.Checkout(c.UserContext(), user.ID, input)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.RedirectSuccess(c, clientDashboardPath, "Package "+result.Package.Name+" activated.")
}

func (h *MessagingHandler) Dashboard(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	dash, err := h.messagingService.Dashboard(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Page(c, fiber.Map{"data": dash})
}

// SendOTP queues a message for the client named by the API key header, or
// for the signed-in user's client.
func (h *MessagingHandler) SendOTP(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var (
		client *models.ApiClient
		err    error
	)
	if key := c.Get(middleware.APIKeyHeader); key != "" {
		client, err = h.messagingService.ClientForKey(ctx, key)
	} else {
		var user *models.User
		if user, err = currentUser(c); err == nil {
			client, err = h.messagingService.ClientForUser(ctx, user.ID)
		}
	}
	if err != nil {
		return response.FromError(c, err)
	}

	var input models.SendMessageInput
	if err := parseBody(c, &input); err != nil {
		return response.FromError(c, err)
	}
	result, err := h.messagingService.Send(ctx, client, input)
	if err != nil {
		return response.FromError(c, err)
	}
	return c.JSON(result)
}
