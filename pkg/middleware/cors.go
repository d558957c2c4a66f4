package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4/middleware"
)

// DevOrigins are always allowed so the dashboard can run locally.
var DevOrigins = []string{
	"http://localhost:3000", // Next.js dev server
	"http://localhost:5173", // Vite dev server
}

// AllowedMethods lists the HTTP methods the dashboard uses.
var AllowedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPatch,
	http.MethodDelete,
}

// AllowedHeaders lists the request headers the dashboard sends.
var AllowedHeaders = []string{
	"Origin",
	"Content-Type",
	"Accept",
	"Authorization",
	"X-API-Key",
}

// CORSConfig returns the CORS configuration for the dashboard at frontendURL.
func CORSConfig(frontendURL string) middleware.CORSConfig {
	origins := append([]string(nil), DevOrigins...)
	if frontendURL != "" {
		origins = append(origins, frontendURL)
	}

	return middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     AllowedMethods,
		AllowCredentials: true,
		AllowHeaders:     AllowedHeaders,
	}
}
