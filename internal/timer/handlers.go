package timer

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, t *Timer, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(t.Status())
	})

	r.Get("/records", func(c *fiber.Ctx) error {
		return c.JSON(t.Records(c.Context()))
	})

	r.Post("/start", authMiddleware, func(c *fiber.Ctx) error {
		t.Start(c.Context())
		return c.JSON(t.Status())
	})

	r.Post("/pause", authMiddleware, func(c *fiber.Ctx) error {
		t.Pause(c.Context())
		return c.JSON(t.Status())
	})

	r.Post("/stop", authMiddleware, func(c *fiber.Ctx) error {
		elapsed := t.Stop(c.Context())
		return c.JSON(fiber.Map{"elapsed": elapsed, "formatted": FormatTime(elapsed)})
	})

	r.Post("/reset", authMiddleware, func(c *fiber.Ctx) error {
		t.Reset(c.Context())
		return c.JSON(t.Status())
	})
}
