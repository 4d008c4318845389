package router

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CorsMiddleware configures CORS based on CORS_ORIGIN (defaults to *). The
// table UI is usually served from a laptop on the same LAN, so the default
// stays open.
func CorsMiddleware() fiber.Handler {
	origin := strings.TrimSpace(os.Getenv("CORS_ORIGIN"))
	if origin == "" {
		origin = "*"
	}

	return cors.New(cors.Config{
		AllowOrigins:     origin,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Admin-Key",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowCredentials: false,
	})
}
