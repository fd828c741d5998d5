package accuracy

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, tracker *Tracker, authMiddleware fiber.Handler) {
	r.Post("/measure", authMiddleware, func(c *fiber.Ctx) error {
		var req MeasureRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Target.Width() < 0 || req.Target.Height() < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "target must have right >= left and bottom >= top")
		}
		return c.Status(fiber.StatusCreated).JSON(tracker.Measure(c.Context(), req))
	})

	r.Get("/", func(c *fiber.Ctx) error {
		v, err := tracker.Latest(c.Context())
		if errors.Is(err, ErrNoMeasurement) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(Latest{Accuracy: v})
	})

	r.Get("/history", func(c *fiber.Ctx) error {
		return c.JSON(tracker.History(c.Context()))
	})
}
