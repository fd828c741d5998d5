package auth

import (
	"errors"
	"strings"

	"github.com/bwlee-dix/h-stuido-dev-research/internal/kv"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/participants", func(c *fiber.Ctx) error {
		var req EnrolRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
			}
		}
		participant, tokens, err := svc.Enrol(c.Context(), req)
		if errors.Is(err, ErrInvalidAccessCode) {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"participant": participant, "tokens": tokens})
	})

	r.Get("/participants/:id", func(c *fiber.Ctx) error {
		p, err := svc.Participant(c.Context(), c.Params("id"))
		if errors.Is(err, kv.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "participant not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(p)
	})

	r.Get("/jwt/verify", func(c *fiber.Ctx) error {
		token := parseBearer(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		participantID, err := svc.ValidateAccessToken(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return c.JSON(fiber.Map{"participant_id": participantID})
	})
}

func parseBearer(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
