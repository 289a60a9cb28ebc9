package handlers

import (
	"sitex/internal/services/transaction"
	"sitex/internal/utils/pagination"
	"sitex/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

const transactionsPath = "/merchant/transactions/"

type TransactionHandler struct {
	transactionService transaction.Service
}

func NewTransactionHandler(transactionService transaction.Service) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// List returns the merchant's transactions, filtered by status and date range.
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var q transaction.ListQuery
	if err := c.QueryParser(&q); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}

	p := pagination.ParseFromRequest(c)
	txns, total, err := h.transactionService.List(c.UserContext(), user.ID, q, p.Offset, p.Limit)
	if err != nil {
		return response.FromError(c, err)
	}
	p.Total = total
	return response.Page(c, pagination.Response(p, txns))
}

func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	txn, err := h.transactionService.Get(c.UserContext(), user.ID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Transaction", txn)
}

func (h *TransactionHandler) Refund(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if _, err := h.transactionService.Refund(c.UserContext(), user.ID, id); err != nil {
		return response.FromError(c, err)
	}
	return response.RedirectSuccess(c, transactionsPath, "Transaction refunded.")
}
