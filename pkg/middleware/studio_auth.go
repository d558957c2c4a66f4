package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jordanlanch/beautyos/pkg/auth"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/labstack/echo/v4"
)

// Context keys set by StudioAuth.
const (
	ContextStudioID   = "studio_id"
	ContextStudioSlug = "studio_slug"
)

// APIKeyHeader carries a studio API key.
const APIKeyHeader = "X-API-Key"

// StudioLookup resolves studios by API key.
type StudioLookup interface {
	GetStudioByAPIKey(ctx context.Context, apiKey string) (*models.Studio, error)
}

// StudioAuth authenticates a studio by X-API-Key or by a dashboard session
// JWT in the Authorization header, and stores its ID in the context.
func StudioAuth(studios StudioLookup, secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiKey := c.Request().Header.Get(APIKeyHeader); apiKey != "" {
				ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
				defer cancel()

				studio, err := studios.GetStudioByAPIKey(ctx, apiKey)
				if err != nil {
					return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
						Error:   "internal_error",
						Message: "An internal error occurred. Please try again later.",
					})
				}
				if studio == nil {
					return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
						Error:   "invalid_api_key",
						Message: "Invalid API key",
					})
				}

				c.Set(ContextStudioID, studio.ID)
				c.Set(ContextStudioSlug, studio.Slug)
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "missing_credentials",
					Message: "X-API-Key or Authorization header is required",
				})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token_format",
					Message: "Authorization header must be 'Bearer {token}'",
				})
			}

			claims, err := auth.ValidateJWT(parts[1], secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token",
					Message: "Session expired or invalid",
				})
			}

			c.Set(ContextStudioID, claims.StudioID)
			c.Set(ContextStudioSlug, claims.Slug)
			return next(c)
		}
	}
}

// StudioID returns the authenticated studio, or "" outside StudioAuth.
func StudioID(c echo.Context) string {
	id, _ := c.Get(ContextStudioID).(string)
	return id
}
