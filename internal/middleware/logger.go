package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/clipix/backend/internal/apperror"
)

// Logger logs every request with method, path, status and duration. Errors
// returned by handlers are mapped to the status they will surface as, since
// the central ErrorHandler only runs after this middleware returns.
func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			switch e := err.(type) {
			case *apperror.Error:
				status = e.Status
			case *fiber.Error:
				status = e.Code
			default:
				status = fiber.StatusInternalServerError
			}
		}

		log.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("ip", c.IP()).
			Msg("request")

		return err
	}
}
