package gesture

import (
	"github.com/gofiber/fiber/v2"
)

type pointerRequest struct {
	ClientY        float64 `json:"clientY"`
	ViewportHeight float64 `json:"viewportHeight"`
}

// RegisterRoutes exposes the drag handler under /drag and the swipe sheet
// under /swipe.
func RegisterRoutes(r fiber.Router, drag *DragHandler, swipe *SwipeSheet, authMiddleware fiber.Handler) {
	r.Get("/drag", func(c *fiber.Ctx) error {
		return c.JSON(drag.State())
	})

	r.Post("/drag/down", authMiddleware, pointerHandler(func(p pointerRequest) { drag.PointerDown(p.ClientY) }, func() interface{} { return drag.State() }))
	r.Post("/drag/move", authMiddleware, pointerHandler(func(p pointerRequest) { drag.PointerMove(p.ClientY) }, func() interface{} { return drag.State() }))
	r.Post("/drag/up", authMiddleware, func(c *fiber.Ctx) error {
		drag.PointerUp()
		return c.JSON(drag.State())
	})

	r.Get("/swipe", func(c *fiber.Ctx) error {
		return c.JSON(swipe.State())
	})

	r.Post("/swipe/start", authMiddleware, pointerHandler(func(p pointerRequest) { swipe.TouchStart(p.ClientY, p.ViewportHeight) }, func() interface{} { return swipe.State() }))
	r.Post("/swipe/move", authMiddleware, pointerHandler(func(p pointerRequest) { swipe.TouchMove(p.ClientY) }, func() interface{} { return swipe.State() }))
	r.Post("/swipe/end", authMiddleware, func(c *fiber.Ctx) error {
		swipe.TouchEnd()
		return c.JSON(swipe.State())
	})
}

// RegisterModalRoutes exposes the modal store.
func RegisterModalRoutes(r fiber.Router, modals *ModalStore, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(modals.All())
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": c.Params("id"), "visible": modals.Visible(c.Params("id"))})
	})

	r.Post("/:id/show", authMiddleware, func(c *fiber.Ctx) error {
		modals.Show(c.Params("id"))
		return c.JSON(fiber.Map{"id": c.Params("id"), "visible": true})
	})

	r.Post("/:id/hide", authMiddleware, func(c *fiber.Ctx) error {
		modals.Hide(c.Params("id"))
		return c.JSON(fiber.Map{"id": c.Params("id"), "visible": false})
	})
}

func pointerHandler(apply func(pointerRequest), state func() interface{}) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req pointerRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		apply(req)
		return c.JSON(state())
	}
}
