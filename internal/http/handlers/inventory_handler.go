package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"superloja/internal/log"
	"superloja/internal/services"
	"superloja/internal/validate"
)

type InventoryHandler struct {
	Inv     *services.InventoryService
	Catalog *services.CatalogService
}

// GET /api/v1/availability?productId=
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID := strings.TrimSpace(c.Query("productId"))
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing productId"})
	}
	if _, ok := validate.ID(productID); !ok {
		return badRequest(c, "productId")
	}
	avail, err := h.Inv.CheckAvailability(c.UserContext(), productID)
	if err != nil {
		return fail(c, "availability.fail", err)
	}
	return c.JSON(avail)
}

// GET /admin/api/stock/low
func (h *InventoryHandler) Low(c *fiber.Ctx) error {
	ps, err := h.Inv.LowStock(c.UserContext())
	if err != nil {
		return fail(c, "admin.inventory.low.fail", err)
	}
	return c.JSON(fiber.Map{"products": ps})
}

type stockInput struct {
	ProductID string `json:"product_id" form:"product_id"`
	Qty       *int   `json:"qty" form:"qty"`
}

// POST /admin/api/stock
func (h *InventoryHandler) Save(c *fiber.Ctx) error {
	var in stockInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	pid, ok := validate.ID(in.ProductID)
	if !ok || in.Qty == nil || *in.Qty < 0 {
		return badRequest(c, "stock")
	}
	if err := h.Catalog.SetStock(c.UserContext(), pid, *in.Qty); err != nil {
		return fail(c, "admin.inventory.save.fail", err)
	}
	log.Audit(c, "admin.inventory.save", map[string]any{"product": pid, "qty": *in.Qty})
	return c.JSON(fiber.Map{"product_id": pid, "stock_quantity": *in.Qty})
}
