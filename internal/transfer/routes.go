package transfer

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"stakehouse/internal/ledger"
)

func RegisterRoutes(r fiber.Router, svc *Service) {

	r.Post("/transfer", func(c *fiber.Ctx) error {
		uid := c.Locals("uid").(int64)

		var body struct {
			To     int64 `json:"to"`
			Amount int64 `json:"amount"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad request"})
		}

		t, err := svc.Send(c.Context(), uid, body.To, body.Amount)
		if err != nil {
			return c.Status(transferStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(t)
	})
}

func transferStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ErrBadAmount),
		errors.Is(err, ErrSameAccount):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}
