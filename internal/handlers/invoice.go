package handlers

import (
	"sitex/internal/models"
	"sitex/internal/services/invoice"
	"sitex/internal/utils/pagination"
	"sitex/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

const invoicesPath = "/merchant/invoices/"

type InvoiceHandler struct {
	invoiceService invoice.Service
}

func NewInvoiceHandler(invoiceService invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// formValues returns every value posted under key, for urlencoded and multipart bodies.
func formValues(c *fiber.Ctx, key string) []string {
	if form, err := c.MultipartForm(); err == nil {
		return form.Value[key]
	}
	var values []string
	for _, v := range c.Request().PostArgs().PeekMulti(key) {
		values = append(values, string(v))
	}
	return values
}

// invoiceInput reads a JSON body with items, or a form with parallel item arrays.
func invoiceInput(c *fiber.Ctx) (models.InvoiceInput, error) {
	var input models.InvoiceInput
	if c.Is("json") {
		err := parseBody(c, &input)
		return input, err
	}
	input.InvoiceNumber = c.FormValue("invoice_number")
	input.Description = c.FormValue("description")
	input.Items = invoice.ZipItems(
		formValues(c, "item_description[]"),
		formValues(c, "item_quantity[]"),
		formValues(c, "item_unit_price[]"),
	)
	return input, nil
}

func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	p := pagination.ParseFromRequest(c)
	invoices, total, err := h.invoiceService.List(c.UserContext(), user.ID, p.Offset, p.Limit)
	if err != nil {
		return response.FromError(c, err)
	}
	p.Total = total
	return response.Page(c, pagination.Response(p, invoices))
}

func (h *InvoiceHandler) Get(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	inv, err := h.invoiceService.Get(c.UserContext(), user.ID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invoice", inv)
}

func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	input, err := invoiceInput(c)
	if err != nil {
		return response.FromError(c, err)
	}
	if _, err := h.invoiceService.Create(c.UserContext(), user.ID, input); err != nil {
		return response.FromError(c, err)
	}
	return response.RedirectSuccess(c, invoicesPath, "Invoice created.")
}

func (h *InvoiceHandler) Update(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	input, err := invoiceInput(c)
	if err != nil {
		return response.FromError(c, err)
	}
	if _, err := h.invoiceService.Update(c.UserContext(), user.ID, id, input); err != nil {
		return response.FromError(c, err)
	}
	return response.RedirectSuccess(c, invoicesPath, "Invoice updated.")
}

func (h *InvoiceHandler) Delete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.invoiceService.Delete(c.UserContext(), user.ID, id); err != nil {
		return response.FromError(c, err)
	}
	return response.RedirectSuccess(c, invoicesPath, "Invoice deleted.")
}
