package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "superloja/internal/log"
	"superloja/internal/services"
)

const (
	CSRFCookie = "csrf_"
	CSRFHeader = "X-CSRF-Token"
)

func wantsJSON(c *fiber.Ctx) bool {
	p := c.Path()
	return strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/admin/api/")
}

// LoadUser puts the signed-in profile, if any, into Locals for handlers, templates and logs.
func LoadUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := auth.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
				c.Locals("user", u)
				c.Locals("user_id", u.ID)
			}
		}
		return c.Next()
	}
}

// RequireAdmin admits the admin role or the configured admin email.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil && c.Cookies("sid") == "" {
			if wantsJSON(c) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "faça login para continuar"})
			}
			return c.Redirect("/login")
		}
		if !auth.IsAdmin(u) {
			applog.Security(c, "access.denied.admin", nil)
			if wantsJSON(c) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "acesso negado"})
			}
			return notFoundPage(c, fiber.StatusForbidden, "Acesso negado")
		}
		return c.Next()
	}
}

// RequireUser lets signed-in users through; others go to the login page.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) != nil {
			return c.Next()
		}
		if wantsJSON(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "faça login para continuar"})
		}
		return c.Redirect("/login")
	}
}

// Maintenance blocks storefront purchases and bids while the store is in maintenance mode.
// Admins keep working.
func Maintenance(settings *services.SettingsService, auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet || auth.IsAdmin(currentUser(c)) {
			return c.Next()
		}
		st, err := settings.Load(c.UserContext())
		if err != nil {
			return fail(c, "settings.load", err)
		}
		if st.MaintenanceMode {
			return fail(c, "store.maintenance", services.ErrStoreInMaintenance)
		}
		return c.Next()
	}
}
