package screenshot

import (
	"github.com/gofiber/fiber/v2"
)

type captureRequest struct {
	Page int    `json:"pageNumber"`
	HTML string `json:"html"`
}

type touchRequest struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Page int     `json:"pageNumber"`
}

func RegisterRoutes(r fiber.Router, tracker *Tracker, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(tracker.Screenshots())
	})

	r.Get("/touches", func(c *fiber.Ctx) error {
		return c.JSON(tracker.TouchPositions())
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req captureRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		shot, err := tracker.CapturePage(c.Context(), req.Page, req.HTML)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(shot)
	})

	r.Post("/touches", authMiddleware, func(c *fiber.Ctx) error {
		var req touchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		tracker.TrackTouch(c.Context(), req.X, req.Y, req.Page)
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/load", authMiddleware, func(c *fiber.Ctx) error {
		if err := tracker.Load(c.Context()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(tracker.Screenshots())
	})

	r.Delete("/", authMiddleware, func(c *fiber.Ctx) error {
		tracker.Clear(c.Context())
		return c.SendStatus(fiber.StatusNoContent)
	})
}
