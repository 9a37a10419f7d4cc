package handlers

import (
	"github.com/gofiber/fiber/v2"

	"superloja/internal/services"
	"superloja/internal/validate"
)

type CartHandler struct {
	Cookies
	Cart *services.CartService
}

type cartLine struct {
	ProductID string `json:"product_id" form:"productId"`
	Qty       int    `json:"quantity" form:"qty"`
}

func (h *CartHandler) view(c *fiber.Ctx, sid string) error {
	cv, err := h.Cart.View(c.UserContext(), sid)
	if err != nil {
		return fail(c, "cart.view.fail", err)
	}
	return c.JSON(cv)
}

// GET /api/v1/cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	return h.view(c, h.SID(c))
}

// POST /api/v1/cart
func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := h.SID(c)
	var in cartLine
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	if in.ProductID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing productId"})
	}
	if _, ok := validate.ID(in.ProductID); !ok {
		return badRequest(c, "productId")
	}
	if in.Qty <= 0 {
		in.Qty = 1
	}
	if err := h.Cart.Add(c.UserContext(), sid, in.ProductID, in.Qty); err != nil {
		return fail(c, "cart.add.fail", err)
	}
	return h.view(c, sid)
}

// PUT /api/v1/cart/:productId
func (h *CartHandler) SetQuantity(c *fiber.Ctx) error {
	sid := h.SID(c)
	var in cartLine
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	if err := h.Cart.SetQuantity(c.UserContext(), sid, c.Params("productId"), in.Qty); err != nil {
		return fail(c, "cart.update.fail", err)
	}
	return h.view(c, sid)
}

// DELETE /api/v1/cart/:productId
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := h.SID(c)
	if err := h.Cart.Remove(c.UserContext(), sid, c.Params("productId")); err != nil {
		return fail(c, "cart.remove.fail", err)
	}
	return h.view(c, sid)
}
