package security

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// APIKeyGuard authenticates the chat collaborator. The caller attests the
// acting user with X-User-ID; session mechanics live outside the core.
func APIKeyGuard(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("X-API-Key") != apiKey {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}

		uid, err := strconv.ParseInt(c.Get("X-User-ID"), 10, 64)
		if err != nil || uid <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing user id"})
		}
		c.Locals("uid", uid)
		return c.Next()
	}
}

func AdminGuard(adminToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("X-Admin-Token") != adminToken {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.Next()
	}
}
