package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLog logs one structured line per request: method, path, status,
// latency, and whether the response was served from cache. Unlike the
// teacher's version this never writes to a partner-billing table — there
// is no partner concept here — so it logs straight to the structured
// logger instead of persisting rows.
func RequestLog(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		cacheHit := false
		if v := c.Locals("cache_hit"); v != nil {
			cacheHit, _ = v.(bool)
		}

		logger.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", latency),
			zap.Bool("cache_hit", cacheHit),
			zap.String("ip", c.IP()),
		)

		return err
	}
}
