package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit implements a fixed-window per-key request limiter over Redis.
// Unlike the teacher's multi-tier (per-second/day/month) partner limiter,
// this service has one tier: perSecond requests per key per second.
func RateLimit(rdb *redis.Client, perSecond int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil || perSecond <= 0 {
			return c.Next()
		}

		key, _ := c.Locals("api_key").(string)
		if key == "" {
			key = c.IP()
		}

		ctx := context.Background()
		now := time.Now().Unix()
		redisKey := fmt.Sprintf("rl:%s:%d", key, now)

		count, err := rdb.Incr(ctx, redisKey).Result()
		if err != nil {
			// Redis unavailable: fail open rather than block traffic.
			return c.Next()
		}
		rdb.Expire(ctx, redisKey, 2*time.Second)

		if count > int64(perSecond) {
			c.Set("X-RateLimit-Limit", strconv.Itoa(perSecond))
			c.Set("Retry-After", "1")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "rate_limit_exceeded",
				"limit":       perSecond,
				"retry_after": 1,
			})
		}

		return c.Next()
	}
}
