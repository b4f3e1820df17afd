package ledger

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {

	r.Get("/balance", func(c *fiber.Ctx) error {
		uid := c.Locals("uid").(int64)
		balance, err := svc.Balance(c.Context(), uid)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return c.JSON(fiber.Map{"balance": balance})
	})

	r.Get("/account", func(c *fiber.Ctx) error {
		uid := c.Locals("uid").(int64)
		account, err := svc.Account(c.Context(), uid)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return c.JSON(account)
	})
}
