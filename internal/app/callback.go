package app

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"stakehouse/internal/command"
	"stakehouse/internal/crash"
	"stakehouse/internal/ledger"
	"stakehouse/internal/progressive"
	"stakehouse/internal/settle"
	"stakehouse/internal/withdraw"
)

// registerCallback mounts the chat collaborator's single entry point. The
// collaborator forwards each button press as one opaque token; the token is
// decoded into a typed command and dispatched to the owning engine.
func registerCallback(r fiber.Router, player *settle.InstantPlayer, rounds *crash.Engine, boards *progressive.Engine, withdrawals *withdraw.Service) {
	r.Post("/callback", func(c *fiber.Ctx) error {
		type Req struct {
			Token      string `json:"token"`
			ClientSeed string `json:"client_seed"`
		}

		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}

		cmd, err := command.Parse(body.Token)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		uid := c.Locals("uid").(int64)

		switch cmd := cmd.(type) {
		case command.PlaceBet:
			res, err := player.Play(c.Context(), uid, settle.Game(cmd.Game), cmd.Stake, cmd.Guess, body.ClientSeed)
			if err != nil {
				return fail(c, err)
			}
			return c.JSON(res)

		case command.CrashJoin:
			roundID, err := uuid.Parse(cmd.RoundID)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad round id"})
			}
			w, err := rounds.PlaceBet(c.Context(), roundID, uid, cmd.Stake)
			if err != nil {
				return fail(c, err)
			}
			return c.JSON(w)

		case command.CrashCashout:
			roundID, err := uuid.Parse(cmd.RoundID)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad round id"})
			}
			m, err := rounds.CashOut(roundID, cmd.WagerID)
			if err != nil {
				return fail(c, err)
			}
			return c.JSON(fiber.Map{"wager_id": cmd.WagerID, "multiplier": m})

		case command.Reveal:
			res, err := boards.Reveal(c.Context(), cmd.WagerID, cmd.Choice)
			if err != nil {
				return fail(c, err)
			}
			return c.JSON(res)

		case command.BoardCashout:
			res, err := boards.CashOut(c.Context(), cmd.WagerID)
			if err != nil {
				return fail(c, err)
			}
			return c.JSON(res)

		case command.WithdrawConfirm:
			// Confirmation is an acknowledgement, not an approval: the
			// pipeline routed the request when it was created, and review
			// stays with the operator. The user just gets the current state.
			req, err := withdrawals.Get(c.Context(), cmd.RequestID)
			if err != nil {
				return fail(c, err)
			}
			if req.UID != uid {
				return fail(c, withdraw.ErrRequestNotFound)
			}
			return c.JSON(req)
		}

		return c.SendStatus(fiber.StatusBadRequest)
	})
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(callbackStatus(err)).JSON(fiber.Map{"error": err.Error()})
}

func callbackStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, settle.ErrInvalidWager),
		errors.Is(err, progressive.ErrBadTile),
		errors.Is(err, progressive.ErrBadMineCount),
		errors.Is(err, progressive.ErrBadDifficulty):
		return fiber.StatusBadRequest
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, settle.ErrWagerNotFound),
		errors.Is(err, crash.ErrRoundNotFound),
		errors.Is(err, progressive.ErrGameNotFound),
		errors.Is(err, withdraw.ErrRequestNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, crash.ErrRoundNotActive),
		errors.Is(err, crash.ErrStaleCashout),
		errors.Is(err, crash.ErrNotInRound),
		errors.Is(err, progressive.ErrGameOver),
		errors.Is(err, progressive.ErrTileRevealed):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
