package progressive

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"stakehouse/internal/ledger"
	"stakehouse/internal/settle"
)

func RegisterRoutes(r fiber.Router, engine *Engine) {

	r.Post("/mines/start", func(c *fiber.Ctx) error {
		type Req struct {
			Stake int64 `json:"stake"`
			Mines int   `json:"mines"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		uid := c.Locals("uid").(int64)

		inst, err := engine.StartMines(c.Context(), uid, body.Stake, body.Mines)
		if err != nil {
			return c.Status(progressiveStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(inst)
	})

	r.Post("/tower/start", func(c *fiber.Ctx) error {
		type Req struct {
			Stake      int64  `json:"stake"`
			Difficulty string `json:"difficulty"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		uid := c.Locals("uid").(int64)

		inst, err := engine.StartTower(c.Context(), uid, body.Stake, body.Difficulty)
		if err != nil {
			return c.Status(progressiveStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(inst)
	})

	r.Post("/board/:wager/reveal", func(c *fiber.Ctx) error {
		type Req struct {
			Choice int `json:"choice"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}

		res, err := engine.Reveal(c.Context(), c.Params("wager"), body.Choice)
		if err != nil {
			return c.Status(progressiveStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(res)
	})

	r.Post("/board/:wager/cashout", func(c *fiber.Ctx) error {
		res, err := engine.CashOut(c.Context(), c.Params("wager"))
		if err != nil {
			return c.Status(progressiveStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(res)
	})
}

func progressiveStatus(err error) int {
	switch {
	case errors.Is(err, ErrGameNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrGameOver), errors.Is(err, ErrTileRevealed):
		return fiber.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, settle.ErrInvalidWager),
		errors.Is(err, ErrBadTile),
		errors.Is(err, ErrBadMineCount),
		errors.Is(err, ErrBadDifficulty):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
