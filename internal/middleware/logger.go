package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger writes one line per request: info for success, warn for
// client errors, error for failures. Requests to quiet paths, such as
// health and metrics scrapes, are not logged.
func RequestLogger(logger *zap.SugaredLogger, quiet ...string) fiber.Handler {
	skip := make(map[string]struct{}, len(quiet))
	for _, p := range quiet {
		skip[p] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		if _, ok := skip[c.Path()]; ok {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if err != nil {
			status = fiber.StatusInternalServerError
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		fields := []any{
			"method", c.Method(),
			"path", c.Path(),
			"ip", c.IP(),
			"status", status,
			"latency", time.Since(start),
		}
		if userID := UserID(c); userID != "" {
			fields = append(fields, "user_id", userID)
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			if err != nil {
				fields = append(fields, "error", err)
			}
			logger.Errorw("HTTP Request Error", fields...)
		case status >= fiber.StatusBadRequest:
			logger.Warnw("HTTP Request Rejected", fields...)
		default:
			logger.Infow("HTTP Request", fields...)
		}
		return err
	}
}
