package handlers

import (
	"github.com/gofiber/fiber/v2"

	"superloja/internal/log"
	"superloja/internal/services"
	"superloja/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Auth    *services.AuthService
}

// GET /api/v1/products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Este item não está mais disponível"})
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return fail(c, "product.detail.fail", err)
	}
	if !p.Active && !h.Auth.IsAdmin(currentUser(c)) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Este item não está mais disponível"})
	}
	return c.JSON(p)
}

// POST /admin/api/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.products.create.fail", err)
	}
	log.Audit(c, "admin.products.create", map[string]any{"product": p.ID})
	return c.Status(fiber.StatusCreated).JSON(p)
}

// PUT /admin/api/products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return fail(c, "admin.products.update.fail", err)
	}
	log.Audit(c, "admin.products.update", map[string]any{"product": p.ID})
	return c.JSON(p)
}

// DELETE /admin/api/products/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Catalog.DeleteProduct(c.UserContext(), id); err != nil {
		return fail(c, "admin.products.delete.fail", err)
	}
	log.Audit(c, "admin.products.delete", map[string]any{"product": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /admin/api/promotions
func (h *ProductHandler) Promotions(c *fiber.Ctx) error {
	ps, err := h.Catalog.ListPromotions(c.UserContext())
	if err != nil {
		return fail(c, "admin.promotions.list.fail", err)
	}
	return c.JSON(fiber.Map{"promotions": ps})
}

// POST /admin/api/promotions
func (h *ProductHandler) CreatePromotion(c *fiber.Ctx) error {
	var in services.PromotionInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	p, err := h.Catalog.CreatePromotion(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.promotions.create.fail", err)
	}
	log.Audit(c, "admin.promotions.create", map[string]any{"promotion": p.ID, "percent": p.DiscountPercent})
	return c.Status(fiber.StatusCreated).JSON(p)
}

// DELETE /admin/api/promotions/:id
func (h *ProductHandler) DeletePromotion(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Catalog.DeletePromotion(c.UserContext(), id); err != nil {
		return fail(c, "admin.promotions.delete.fail", err)
	}
	log.Audit(c, "admin.promotions.delete", map[string]any{"promotion": id})
	return c.SendStatus(fiber.StatusNoContent)
}
