package payment

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the IPN webhook. It is not behind the API-key guard:
// the HMAC signature is the authentication.
func RegisterRoutes(r fiber.Router, service *Service) {

	r.Post("/webhook/payments", func(c *fiber.Ctx) error {
		signature := c.Get("x-nowpayments-sig")
		if signature == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing signature"})
		}

		err := service.HandleIPN(c.Context(), c.Body(), signature)
		switch {
		case errors.Is(err, ErrBadSignature):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid signature"})
		case errors.Is(err, ErrIgnored):
			// Acknowledged so the provider stops retrying.
			return c.JSON(fiber.Map{"status": "ignored"})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		}
		return c.JSON(fiber.Map{"status": "success"})
	})
}
