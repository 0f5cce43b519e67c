package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestID stamps every request with a unique id, propagated both as a
// response header and a Locals value downstream handlers can log.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := uuid.NewString()
		c.Locals("request_id", id)
		c.Set("X-Request-Id", id)
		return c.Next()
	}
}
