package handlers

import (
	"github.com/gofiber/fiber/v2"

	"superloja/internal/log"
	"superloja/internal/services"
	"superloja/internal/validate"
)

const badLogin = "E-mail ou senha inválidos"

type AuthHandler struct {
	Cookies
	Auth *services.AuthService
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) loginFailed(c *fiber.Ctx, email, reason string) error {
	fields := map[string]any{"email": email}
	if reason != "" {
		fields["reason"] = reason
	}
	log.Security(c, "auth.login.fail", fields)
	return c.Status(fiber.StatusUnauthorized).Render("login", fiber.Map{"Err": badLogin, "CSRFToken": c.Cookies(CSRFCookie)})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := h.SID(c)
	email := c.FormValue("email")
	pass := c.FormValue("password")
	if _, ok := validate.Email(email); !ok {
		return h.loginFailed(c, email, "bad_format")
	}
	if !validate.Password(pass) {
		return h.loginFailed(c, email, "bad_password_format")
	}
	u, err := h.Auth.Login(c.UserContext(), sid, email, pass)
	if err != nil {
		return h.loginFailed(c, email, "")
	}
	c.Locals("user_id", u.ID)
	log.Audit(c, "auth.login.success", map[string]any{"email": u.Email})
	if h.Auth.IsAdmin(u) {
		return c.Redirect("/admin")
	}
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := h.SID(c)
	if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
		log.Error(c, "auth.logout.fail", err, nil)
	}
	h.expire(c, "sid")
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/")
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	u, err := h.Auth.Register(c.UserContext(), h.SID(c), in)
	if err != nil {
		return fail(c, "auth.register.fail", err)
	}
	c.Locals("user_id", u.ID)
	log.Audit(c, "auth.register", map[string]any{"email": u.Email})
	return c.Status(fiber.StatusCreated).JSON(u)
}

// GET /api/v1/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u := currentUser(c)
	return c.JSON(fiber.Map{"profile": u, "is_admin": h.Auth.IsAdmin(u)})
}

// PUT /api/v1/me
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var in services.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	p, err := h.Auth.UpdateProfile(c.UserContext(), userID(c), in)
	if err != nil {
		return fail(c, "profile.update.fail", err)
	}
	log.Audit(c, "profile.update", nil)
	return c.JSON(p)
}
