package handlers

import (
	"strconv"

	apperrors "sitex/internal/errors"
	"sitex/internal/middleware"
	"sitex/internal/models"

	"github.com/gofiber/fiber/v2"
)

// paramID parses a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.ErrBadRequest.WithMessage("invalid " + name)
	}
	return uint(id), nil
}

// currentUser returns the signed-in user. Gated routes always have one.
func currentUser(c *fiber.Ctx) (*models.User, error) {
	user := middleware.CurrentUser(c)
	if user == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	return user, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.ErrBadRequest.WithMessage("Invalid request body")
	}
	return nil
}
