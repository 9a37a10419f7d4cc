package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"superloja/internal/log"
	"superloja/internal/services"
	"superloja/internal/validate"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/search?q=&category=&page=
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	q := ""
	if strings.TrimSpace(rawQ) != "" {
		var ok bool
		if q, ok = validate.Q(rawQ); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Digite uma busca válida (letras e números)"})
		}
	}
	category := strings.TrimSpace(c.Query("category"))
	if category != "" {
		if _, ok := validate.ID(category); !ok {
			return badRequest(c, "category")
		}
	}
	page := c.QueryInt("page", 1)
	products, err := h.Catalog.Search(c.UserContext(), strings.ToLower(q), category, page, services.DefaultPageSize)
	if err != nil {
		return fail(c, "search.error", err)
	}
	return c.JSON(fiber.Map{"q": q, "category": category, "page": page, "count": len(products), "products": products})
}
