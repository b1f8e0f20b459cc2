package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/clipix/backend/internal/apperror"
)

// RateLimiter enforces a fixed request ceiling per client IP within a window,
// counted in Redis so all instances share the same view. Group separates the
// ceilings of different route groups. Redis outages fail open.
func RateLimiter(rdb *redis.Client, group string, maxRequests int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("clipix:ratelimit:%s:%s", group, c.IP())

		count, err := rdb.Incr(c.Context(), key).Result()
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limiter unavailable, allowing request")
			return c.Next()
		}
		if count == 1 {
			rdb.Expire(c.Context(), key, window)
		}

		if count > int64(maxRequests) {
			ttl, _ := rdb.TTL(c.Context(), key).Result()
			seconds := int(ttl.Seconds())
			if seconds < 1 {
				seconds = int(window.Seconds())
			}
			return apperror.New(fiber.StatusTooManyRequests,
				"Muitas requisições. Tente novamente em "+strconv.Itoa(seconds)+" segundos.")
		}

		return c.Next()
	}
}
