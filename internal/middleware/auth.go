// Package middleware holds the Fiber middleware chain the API server
// installs in front of its routes: API key presence, per-key rate
// limiting, and request logging.
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireAPIKey checks for a bearer token in the Authorization header and
// stashes it in the request context as "api_key". Unlike the teacher's
// version this never touches a partner/billing table — there is no
// partner tier in this service, only a per-key rate limit — so an
// unrecognized but well-formed key is accepted and keyed by its own value.
func RequireAPIKey() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "missing_api_key",
				"message": "API key is required. Use Authorization: Bearer YOUR_API_KEY",
			})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "invalid_auth_format",
				"message": "Authorization header must be in format: Bearer YOUR_API_KEY",
			})
		}

		key := strings.TrimSpace(parts[1])
		if key == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "empty_api_key",
			})
		}

		c.Locals("api_key", key)
		return c.Next()
	}
}
