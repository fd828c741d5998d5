package heatmap

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
)

type recordRequest struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

func RegisterRoutes(r fiber.Router, tracker *Tracker, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(tracker.Data())
	})

	r.Get("/chart", func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := tracker.Render(&buf); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(buf.Bytes())
	})

	r.Post("/tracking/start", authMiddleware, func(c *fiber.Ctx) error {
		tracker.Start()
		return c.JSON(fiber.Map{"tracking": true})
	})

	r.Post("/tracking/stop", authMiddleware, func(c *fiber.Ctx) error {
		tracker.Stop()
		return c.JSON(fiber.Map{"tracking": false})
	})

	r.Post("/points", authMiddleware, func(c *fiber.Ctx) error {
		var req recordRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if !tracker.Record(c.Context(), req.ClientX, req.ClientY) {
			return fiber.NewError(fiber.StatusConflict, "heatmap tracking is stopped")
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/load", authMiddleware, func(c *fiber.Ctx) error {
		if err := tracker.Load(c.Context()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(tracker.Data())
	})

	r.Post("/reset", authMiddleware, func(c *fiber.Ctx) error {
		tracker.Reset(c.Context())
		return c.JSON(tracker.Data())
	})
}
