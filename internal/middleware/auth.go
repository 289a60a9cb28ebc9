// Package middleware provides HTTP middleware components for the application.
// It resolves the signed-in user and decides, per route, whether the request
// may reach its handler.
package middleware

import (
	"strings"

	"sitex/internal/models"
	"sitex/internal/services/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

const (
	// AccessTokenCookie carries the access token for browser sessions.
	AccessTokenCookie = "access_token"
	// RefreshTokenCookie carries the refresh token for browser sessions.
	RefreshTokenCookie = "refresh_token"
	// APIKeyHeader authenticates API clients without a session.
	APIKeyHeader = "X-API-Key"

	localUser = "user"
)

// AuthMiddleware resolves the request's access token to a stored user.
type AuthMiddleware struct {
	authService auth.Service
}

func NewAuthMiddleware(authService auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Identify stores the authenticated user in the request context when a valid
// token is present. It never rejects; access decisions belong to the gate.
func (m *AuthMiddleware) Identify(c *fiber.Ctx) error {
	token := AccessToken(c)
	if token == "" {
		return c.Next()
	}
	user, err := m.authService.Authenticate(c.UserContext(), token)
	if err != nil {
		log.Debugf("%s %s: ignoring token: %v", c.Method(), c.Path(), err)
		return c.Next()
	}
	c.Locals(localUser, user)
	return c.Next()
}

// AccessToken reads the bearer token from the Authorization header, falling
// back to the access token cookie.
func AccessToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Cookies(AccessTokenCookie)
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}

// SetUser stores user as the authenticated user.
func SetUser(c *fiber.Ctx, user *models.User) {
	c.Locals(localUser, user)
}
