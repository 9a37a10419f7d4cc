package handlers

import (
	"github.com/gofiber/fiber/v2"

	"superloja/internal/services"
	"superloja/internal/validate"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, "catalog.categories.fail", err)
	}
	return c.JSON(fiber.Map{"categories": cats})
}

// GET /api/v1/categories/:id/products?page=
func (h *CategoryHandler) Products(c *fiber.Ctx) error {
	catID, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "category")
	}
	page := c.QueryInt("page", 1)
	products, err := h.Catalog.ListProductsByCategory(c.UserContext(), catID, page, services.DefaultPageSize)
	if err != nil {
		return fail(c, "catalog.category.fail", err)
	}
	return c.JSON(fiber.Map{"category_id": catID, "page": page, "products": products})
}
