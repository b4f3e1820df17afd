package crash

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"stakehouse/internal/ledger"
)

func RegisterRoutes(r fiber.Router, engine *Engine) {

	r.Post("/crash/open", func(c *fiber.Ctx) error {
		round := engine.OpenRound()
		return c.JSON(fiber.Map{
			"round_id":  round.ID.String(),
			"seed_hash": round.SeedHash,
		})
	})

	r.Post("/crash/:round/bet", func(c *fiber.Ctx) error {
		type Req struct {
			Stake int64 `json:"stake"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}

		roundID, err := uuid.Parse(c.Params("round"))
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		uid := c.Locals("uid").(int64)

		w, err := engine.PlaceBet(c.Context(), roundID, uid, body.Stake)
		if err != nil {
			return c.Status(crashStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(w)
	})

	r.Post("/crash/:round/start", func(c *fiber.Ctx) error {
		roundID, err := uuid.Parse(c.Params("round"))
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		if err := engine.StartRound(roundID); err != nil {
			return c.Status(crashStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "running"})
	})

	r.Post("/crash/:round/cashout", func(c *fiber.Ctx) error {
		type Req struct {
			WagerID string `json:"wager_id"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}

		roundID, err := uuid.Parse(c.Params("round"))
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}

		m, err := engine.CashOut(roundID, body.WagerID)
		if err != nil {
			return c.Status(crashStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"multiplier": m})
	})

	r.Get("/crash/:round", func(c *fiber.Ctx) error {
		roundID, err := uuid.Parse(c.Params("round"))
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		round, err := engine.Round(roundID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return c.JSON(fiber.Map{
			"round_id":   round.ID.String(),
			"state":      round.State().String(),
			"multiplier": round.Current(),
			"seed_hash":  round.SeedHash,
		})
	})
}

func crashStatus(err error) int {
	switch {
	case errors.Is(err, ErrRoundNotFound),
		errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrRoundNotActive),
		errors.Is(err, ErrStaleCashout),
		errors.Is(err, ErrNotInRound):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
