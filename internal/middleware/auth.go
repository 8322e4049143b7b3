package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/notification-service/internal/auth"
)

const UserIDKey = "user_id"

// JWTAuth verifies the bearer token and stores the caller id in Locals.
func JWTAuth(validator auth.TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := auth.ParseBearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing or invalid authorization"})
		}
		userID, err := validator.Validate(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// UserID returns the id stored by JWTAuth, or "".
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}
