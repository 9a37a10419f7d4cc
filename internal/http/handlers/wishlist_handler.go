package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "superloja/internal/log"
	"superloja/internal/services"
	"superloja/internal/validate"
)

type WishlistHandler struct {
	Cookies
	Wish *services.WishlistService
}

type wishInput struct {
	ProductID string `json:"product_id" form:"productId"`
}

// GET /api/v1/wishlist
func (h *WishlistHandler) List(c *fiber.Ctx) error {
	items, err := h.Wish.List(c.UserContext(), h.SID(c))
	if err != nil {
		return fail(c, "wishlist.list.fail", err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// POST /api/v1/wishlist
func (h *WishlistHandler) Save(c *fiber.Ctx) error {
	var in wishInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	pid, ok := validate.ID(in.ProductID)
	if !ok {
		return badRequest(c, "product_id")
	}
	if err := h.Wish.Save(c.UserContext(), h.SID(c), pid); err != nil {
		return fail(c, "wishlist.save.fail", err)
	}
	applog.Audit(c, "wishlist.save", map[string]any{"product": pid})
	return c.SendStatus(fiber.StatusNoContent)
}

// DELETE /api/v1/wishlist/:productId
func (h *WishlistHandler) Unsave(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("productId"))
	if !ok {
		return badRequest(c, "product_id")
	}
	if err := h.Wish.Unsave(c.UserContext(), h.SID(c), pid); err != nil {
		return fail(c, "wishlist.unsave.fail", err)
	}
	applog.Audit(c, "wishlist.unsave", map[string]any{"product": pid})
	return c.SendStatus(fiber.StatusNoContent)
}
