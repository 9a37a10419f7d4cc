package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "superloja/internal/log"
	"superloja/internal/services"
	"superloja/internal/validate"
)

type AdminHandler struct {
	Dashboard *services.DashboardService
	Auth      *services.AuthService
}

// GET /admin
func (h *AdminHandler) Home(c *fiber.Ctx) error {
	return c.Redirect("/admin/api/dashboard")
}

// GET /admin/api/dashboard
func (h *AdminHandler) Overview(c *fiber.Ctx) error {
	d, err := h.Dashboard.Build(c.UserContext())
	if err != nil {
		return fail(c, "admin.dashboard.fail", err)
	}
	return c.JSON(d)
}

// GET /admin/api/users lists customers (admins excluded).
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	users, err := h.Auth.ListUsers(c.UserContext())
	if err != nil {
		return fail(c, "admin.users.list.fail", err)
	}
	return c.JSON(fiber.Map{"users": users})
}

// DeleteUser deletes a user and related data, cancels their orders.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := validate.ID(id); !ok {
		return badRequest(c, "id")
	}
	if err := h.Auth.DeleteUser(c.UserContext(), id); err != nil {
		return fail(c, "admin.users.delete.fail", err)
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
