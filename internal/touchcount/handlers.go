package touchcount

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, tracker *Tracker, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(tracker.Data())
	})

	r.Post("/tracking/start", authMiddleware, func(c *fiber.Ctx) error {
		tracker.Start()
		return c.JSON(fiber.Map{"tracking": true})
	})

	r.Post("/tracking/stop", authMiddleware, func(c *fiber.Ctx) error {
		tracker.Stop()
		return c.JSON(fiber.Map{"tracking": false})
	})

	r.Post("/start", authMiddleware, eventHandler(tracker.TouchStart))
	r.Post("/end", authMiddleware, eventHandler(tracker.TouchEnd))
	r.Post("/cancel", authMiddleware, eventHandler(tracker.TouchCancel))

	r.Post("/reset", authMiddleware, func(c *fiber.Ctx) error {
		tracker.Reset(c.Context())
		return c.JSON(tracker.Data())
	})
}

func eventHandler(apply func(context.Context, TouchEvent) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var ev TouchEvent
		if err := c.BodyParser(&ev); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if !apply(c.Context(), ev) {
			return fiber.NewError(fiber.StatusConflict, "touch tracking is stopped")
		}
		return c.SendStatus(fiber.StatusAccepted)
	}
}
