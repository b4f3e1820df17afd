package settle

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"stakehouse/internal/ledger"
)

func RegisterRoutes(r fiber.Router, player *InstantPlayer, svc *Service) {

	r.Post("/bet/play", func(c *fiber.Ctx) error {
		type Req struct {
			Game       string `json:"game"`
			Stake      int64  `json:"stake"`
			Guess      string `json:"guess"`
			ClientSeed string `json:"client_seed"`
		}

		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}

		uid := c.Locals("uid").(int64)

		result, err := player.Play(c.Context(), uid, Game(body.Game), body.Stake, body.Guess, body.ClientSeed)
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(result)
	})

	r.Get("/bet/:id", func(c *fiber.Ctx) error {
		w, err := svc.Wager(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return c.JSON(w)
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ErrInvalidWager):
		return fiber.StatusBadRequest
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ErrWagerNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
