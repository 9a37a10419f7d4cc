package handlers

import (
	"github.com/gofiber/fiber/v2"

	"superloja/internal/log"
	"superloja/internal/services"
)

type RequestHandler struct {
	Requests *services.RequestService
}

// POST /api/v1/requests
func (h *RequestHandler) Submit(c *fiber.Ctx) error {
	var in services.ProductRequestInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	r, err := h.Requests.Submit(c.UserContext(), in)
	if err != nil {
		return fail(c, "requests.submit.fail", err)
	}
	log.Info(c, "requests.submit", map[string]any{"request_id": r.ID})
	return c.Status(fiber.StatusCreated).JSON(r)
}

// GET /admin/api/requests?status=
func (h *RequestHandler) List(c *fiber.Ctx) error {
	rs, err := h.Requests.List(c.UserContext(), c.Query("status"))
	if err != nil {
		return fail(c, "admin.requests.list.fail", err)
	}
	return c.JSON(fiber.Map{"requests": rs})
}

// POST /admin/api/requests/:id/status
func (h *RequestHandler) SetStatus(c *fiber.Ctx) error {
	var in statusInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	id := c.Params("id")
	if err := h.Requests.SetStatus(c.UserContext(), id, in.Status); err != nil {
		return fail(c, "admin.requests.status.fail", err)
	}
	log.Audit(c, "admin.requests.status", map[string]any{"request_id": id, "status": in.Status})
	return c.JSON(fiber.Map{"id": id, "status": in.Status})
}
