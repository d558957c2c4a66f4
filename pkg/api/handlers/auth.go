package handlers

import (
	"net/http"

	"github.com/jordanlanch/beautyos/pkg/api/errors"
	"github.com/jordanlanch/beautyos/pkg/auth"
	"github.com/jordanlanch/beautyos/pkg/logger"
	"github.com/jordanlanch/beautyos/pkg/magiclink"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/labstack/echo/v4"
)

// AuthHandler handles passwordless dashboard login
type AuthHandler struct {
	magic           *magiclink.Service
	jwtSecret       string
	expirationHours int
	logger          logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(magic *magiclink.Service, jwtSecret string, expirationHours int, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		magic:           magic,
		jwtSecret:       jwtSecret,
		expirationHours: expirationHours,
		logger:          log.With("component", "auth_handler"),
	}
}

// RequestMagicLink emails a sign-in link. The response is the same whether
// or not the email belongs to a studio.
func (h *AuthHandler) RequestMagicLink(c echo.Context) error {
	var req models.MagicLinkRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return errors.ValidationError(c, err)
	}

	if err := h.magic.RequestLink(c.Request().Context(), req.Email); err != nil {
		h.logger.Error("magic link request failed", "error", err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "If that email is registered, a sign-in link is on its way.",
	})
}

// Verify exchanges a magic token for a session JWT
func (h *AuthHandler) Verify(c echo.Context) error {
	var req models.VerifyTokenRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return errors.ValidationError(c, err)
	}

	session, err := h.magic.ValidateToken(c.Request().Context(), req.Token)
	if err != nil {
		return errors.InternalError(c, err)
	}
	if session == nil {
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "invalid_token",
			Message: "This sign-in link is invalid or has expired",
		})
	}

	token, err := auth.GenerateJWT(session.StudioID, session.Slug, h.jwtSecret, h.expirationHours)
	if err != nil {
		return errors.InternalError(c, err)
	}

	return c.JSON(http.StatusOK, models.AuthResponse{Token: token, Session: session})
}
