package handlers

import (
	"time"

	"sitex/internal/middleware"
	"sitex/internal/models"
	"sitex/internal/services/auth"
	"sitex/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService  auth.Service
	accessTTL    time.Duration
	refreshTTL   time.Duration
	secureCookie bool
}

func NewAuthHandler(authService auth.Service, accessTTL, refreshTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
		secureCookie: secureCookie,
	}
}

// Register creates a client account and signs it in.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input models.CreateUserInput
	if err := parseBody(c, &input); err != nil {
		return response.FromError(c, err)
	}
	session, err := h.authService.Register(c.UserContext(), input)
	if err != nil {
		return response.FromError(c, err)
	}
	h.setCookies(c, session)
	return response.Created(c, "Account created successfully", session)
}

// Login handles user authentication and returns JWT tokens
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input models.LoginInput
	if err := parseBody(c, &input); err != nil {
		return response.FromError(c, err)
	}
	session, err := h.authService.Login(c.UserContext(), input)
	if err != nil {
		return response.FromError(c, err)
	}
	h.setCookies(c, session)
	return response.Success(c, "Login successful", session)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refresh_token" form:"refresh_token"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &input); err != nil {
			return response.FromError(c, err)
		}
	}
	if input.RefreshToken == "" {
		input.RefreshToken = c.Cookies(middleware.RefreshTokenCookie)
	}
	if input.RefreshToken == "" {
		return response.BadRequest(c, "Refresh token is required")
	}

	session, err := h.authService.RefreshTokens(c.UserContext(), input.RefreshToken)
	if err != nil {
		return response.FromError(c, err)
	}
	h.setCookies(c, session)
	return response.Success(c, "Tokens refreshed", session)
}

// Logout revokes the user's tokens and clears the session cookies.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.authService.Logout(c.UserContext(), user.ID); err != nil {
		return response.FromError(c, err)
	}
	c.ClearCookie(middleware.AccessTokenCookie, middleware.RefreshTokenCookie)
	return response.Success(c, "Logged out", nil)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Current user", fiber.Map{
		"user":  user,
		"roles": user.Roles.Names(),
	})
}

func (h *AuthHandler) setCookies(c *fiber.Ctx, session *auth.Session) {
	now := time.Now()
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    session.AccessToken,
		Path:     "/",
		Expires:  now.Add(h.accessTTL),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:     middleware.RefreshTokenCookie,
		Value:    session.RefreshToken,
		Path:     "/accounts/",
		Expires:  now.Add(h.refreshTTL),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
