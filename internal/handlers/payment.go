package handlers

import (
	"errors"
	"strconv"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/services/payment"
	"sitex/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler serves the public customer payment page and receipts.
type PaymentHandler struct {
	paymentService payment.Service
}

func NewPaymentHandler(paymentService payment.Service) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

func receiptURL(transactionID uint) string {
	return "/payment-success/" + strconv.FormatUint(uint64(transactionID), 10) + "/"
}

// linkGone renders the terminal state for links that cannot be paid.
func linkGone(c *fiber.Ctx) error {
	return c.Status(fiber.StatusGone).JSON(fiber.Map{
		"valid": false,
		"error": apperrors.ErrLinkNotValid.Message,
	})
}

func (h *PaymentHandler) Show(c *fiber.Ctx) error {
	checkout, err := h.paymentService.View(c.UserContext(), c.Params("reference"))
	if errors.Is(err, apperrors.ErrLinkNotFound) {
		return linkGone(c)
	}
	if err != nil {
		return response.FromError(c, err)
	}
	if checkout.PaidTransactionID != nil {
		return c.Redirect(receiptURL(*checkout.PaidTransactionID), fiber.StatusFound)
	}
	if !checkout.Valid {
		return linkGone(c)
	}
	return response.Page(c, fiber.Map{
		"valid":      true,
		"reference":  checkout.Link.Reference,
		"title":      checkout.Link.Title,
		"amount":     checkout.Link.Amount,
		"expires_at": checkout.Link.ExpiresAt,
	})
}

// Pay confirms the payment and sends the customer to the receipt.
func (h *PaymentHandler) Pay(c *fiber.Ctx) error {
	txn, _, err := h.paymentService.Pay(c.UserContext(), c.Params("reference"))
	if errors.Is(err, apperrors.ErrLinkNotFound) || errors.Is(err, apperrors.ErrLinkNotValid) {
		return linkGone(c)
	}
	if err != nil {
		return response.FromError(c, err)
	}
	return c.Redirect(receiptURL(txn.ID), fiber.StatusFound)
}

func (h *PaymentHandler) Receipt(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	txn, err := h.paymentService.Receipt(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Payment successful", receiptView(txn))
}

// receiptView exposes only what a customer may see of a transaction.
func receiptView(txn *models.Transaction) fiber.Map {
	view := fiber.Map{
		"transaction_id":    txn.ID,
		"amount":            txn.Amount,
		"status":            txn.Status,
		"gateway_reference": txn.GatewayReference,
		"paid_at":           txn.CreatedAt,
	}
	if txn.PaymentLink != nil {
		view["title"] = txn.PaymentLink.Title
	}
	if txn.Merchant != nil {
		view["merchant_name"] = txn.Merchant.Name
	}
	return view
}
