package distance

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, reg *Registry, authMiddleware fiber.Handler) {
	r.Post("/sessions", authMiddleware, func(c *fiber.Ctx) error {
		var req OpenRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		e, err := reg.Open(c.Context(), req)
		if errors.Is(err, ErrInvalidKey) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(e.Summary())
	})

	r.Post("/sessions/:key/touches", authMiddleware, func(c *fiber.Ctx) error {
		var sample Sample
		if err := c.BodyParser(&sample); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		e, err := lookup(c, reg)
		if err != nil {
			return err
		}
		e.HandleTouch(c.Context(), sample)
		return c.Status(fiber.StatusCreated).JSON(e.Summary())
	})

	r.Post("/sessions/:key/reset", authMiddleware, func(c *fiber.Ctx) error {
		e, err := lookup(c, reg)
		if err != nil {
			return err
		}
		e.Reset(c.Context())
		return c.JSON(e.Summary())
	})

	r.Get("/sessions/:key", func(c *fiber.Ctx) error {
		e, err := lookup(c, reg)
		if err != nil {
			return err
		}
		return c.JSON(e.Summary())
	})

	r.Get("/sessions/:key/points", func(c *fiber.Ctx) error {
		e, err := lookup(c, reg)
		if err != nil {
			return err
		}
		return c.JSON(e.Points())
	})

	r.Get("/sessions/:key/lines", func(c *fiber.Ctx) error {
		e, err := lookup(c, reg)
		if err != nil {
			return err
		}
		return c.JSON(e.Lines())
	})

	r.Get("/sessions/:key/touch-log", func(c *fiber.Ctx) error {
		e, err := lookup(c, reg)
		if err != nil {
			return err
		}
		return c.JSON(e.TouchLog(c.Context()))
	})
}

func lookup(c *fiber.Ctx, reg *Registry) (*Engine, error) {
	e, err := reg.Get(c.Context(), c.Params("key"))
	if errors.Is(err, ErrSessionNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return e, nil
}
