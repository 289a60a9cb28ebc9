package response

import (
	"errors"

	apperrors "sitex/internal/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

// Page answers a GET view: data plus any pending flash messages.
func Page(c *fiber.Ctx, data fiber.Map) error {
	if msgs := flash.Get(c); len(msgs) > 0 {
		data["messages"] = msgs
	}
	return c.JSON(data)
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func ValidationError(c *fiber.Ctx, fields map[string]string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"error":  apperrors.ErrValidation.Message,
		"code":   apperrors.ErrValidation.Code,
		"fields": fields,
	})
}

// FromError renders err. Domain errors keep their status and code; anything
// else is logged and answered with a generic 500.
func FromError(c *fiber.Ctx, err error) error {
	var fe apperrors.FieldErrors
	if errors.As(err, &fe) {
		return ValidationError(c, fe)
	}
	if de, ok := apperrors.As(err); ok {
		return c.Status(de.Status).JSON(fiber.Map{
			"error": de.Message,
			"code":  de.Code,
		})
	}
	log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
	return ServerError(c, "internal server error")
}

// RedirectSuccess redirects with a success flash message.
func RedirectSuccess(c *fiber.Ctx, to, message string) error {
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": message}).Redirect(to)
}

// RedirectError redirects with an error flash message.
func RedirectError(c *fiber.Ctx, to, message string) error {
	return flash.WithError(c, fiber.Map{"type": "error", "message": message}).Redirect(to)
}

// RedirectInfo redirects with an informational flash message.
func RedirectInfo(c *fiber.Ctx, to, message string) error {
	return flash.WithInfo(c, fiber.Map{"type": "info", "message": message}).Redirect(to)
}
