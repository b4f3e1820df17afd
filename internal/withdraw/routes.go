package withdraw

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"stakehouse/internal/ledger"
)

// RegisterRoutes mounts the user-facing endpoints.
func RegisterRoutes(r fiber.Router, service *Service) {

	r.Post("/withdraw/request", func(c *fiber.Ctx) error {
		type Req struct {
			Amount  int64  `json:"amount"`
			Asset   string `json:"asset"`
			Address string `json:"address"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		uid := c.Locals("uid").(int64)

		req, err := service.RequestWithdraw(c.Context(), uid, body.Amount, body.Asset, body.Address)
		if err != nil {
			return c.Status(withdrawStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(req)
	})

	r.Get("/withdraw/:id", func(c *fiber.Ctx) error {
		req, err := service.Get(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return c.JSON(req)
	})
}

// RegisterAdminRoutes mounts the manual-review endpoints.
func RegisterAdminRoutes(r fiber.Router, service *Service) {

	r.Get("/withdraw/review", func(c *fiber.Ctx) error {
		reqs, err := service.InStatus(c.Context(), StatusManualReview)
		if err != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(reqs)
	})

	r.Post("/withdraw/:id/approve", func(c *fiber.Ctx) error {
		if err := service.Approve(c.Context(), c.Params("id")); err != nil {
			return c.Status(withdrawStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "approved"})
	})

	r.Post("/withdraw/:id/reject", func(c *fiber.Ctx) error {
		if err := service.Reject(c.Context(), c.Params("id")); err != nil {
			return c.Status(withdrawStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "rejected"})
	})
}

func withdrawStatus(err error) int {
	switch {
	case errors.Is(err, ErrRequestNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrNotReviewable):
		return fiber.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ErrAmountOutOfRange),
		errors.Is(err, ErrUnsupportedAsset),
		errors.Is(err, ErrAddressInvalid),
		errors.Is(err, ErrBelowAssetMin):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
