package fiber

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequireKey gates every analytics route behind the shared dashboard
// secret, passed as a `key` query or body parameter. Rejection happens
// before any computation.
func RequireKey(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Query("key")
		if key == "" {
			key = c.FormValue("key")
		}
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(secret)) != 1 {
			return c.Status(http.StatusUnauthorized).JSON(ErrorResponse{
				Error: "unauthorized",
			})
		}
		return c.Next()
	}
}

// RequestLogger attaches a request id and logs one line per request.
func RequestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := uuid.NewString()
		c.Locals("request_id", requestID)
		c.Set("X-Request-ID", requestID)

		start := time.Now()
		err := c.Next()

		logger.Info().
			Str("request_id", requestID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("duration", time.Since(start)).
			Msg("request")

		return err
	}
}
