package completion

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type startRequest struct {
	TaskID string `json:"taskId"`
}

type completeRequest struct {
	Successful bool `json:"successful"`
}

func RegisterRoutes(r fiber.Router, tracker *Tracker, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(tracker.Stats())
	})

	r.Get("/results", func(c *fiber.Ctx) error {
		return c.JSON(tracker.Results())
	})

	r.Post("/tasks", authMiddleware, func(c *fiber.Ctx) error {
		var req startRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.TaskID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "taskId required")
		}
		tracker.StartTask(req.TaskID)
		return c.SendStatus(fiber.StatusCreated)
	})

	r.Post("/guide", authMiddleware, func(c *fiber.Ctx) error {
		if !tracker.MarkGuideShown() {
			return fiber.NewError(fiber.StatusConflict, ErrNoActiveTask.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/complete", authMiddleware, func(c *fiber.Ctx) error {
		var req completeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		res, err := tracker.CompleteTask(c.Context(), req.Successful)
		if errors.Is(err, ErrNoActiveTask) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(res)
	})

	r.Post("/reset", authMiddleware, func(c *fiber.Ctx) error {
		if err := tracker.Reset(c.Context()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(tracker.Stats())
	})
}
