package handlers

import (
	"github.com/gofiber/fiber/v2"

	"superloja/internal/domain"
	"superloja/internal/services"
)

type NotificationHandler struct {
	Notify *services.NotificationService
}

// GET /api/v1/notifications
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	uid := userID(c)
	ns, err := h.Notify.List(c.UserContext(), uid)
	if err != nil {
		return fail(c, "notifications.list.fail", err)
	}
	unread, err := h.Notify.Unread(c.UserContext(), uid)
	if err != nil {
		return fail(c, "notifications.list.fail", err)
	}
	return c.JSON(fiber.Map{"notifications": ns, "unread": unread})
}

// POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.Notify.MarkRead(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return fail(c, "notifications.read.fail", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/v1/notifications/settings
func (h *NotificationHandler) Settings(c *fiber.Ctx) error {
	st, err := h.Notify.Settings(c.UserContext(), userID(c))
	if err != nil {
		return fail(c, "notifications.settings.fail", err)
	}
	return c.JSON(st)
}

// PUT /api/v1/notifications/settings
func (h *NotificationHandler) SaveSettings(c *fiber.Ctx) error {
	uid := userID(c)
	st := domain.DefaultNotificationSettings(uid)
	if err := c.BodyParser(&st); err != nil {
		return badRequest(c, "body")
	}
	if err := h.Notify.SaveSettings(c.UserContext(), uid, st); err != nil {
		return fail(c, "notifications.settings.fail", err)
	}
	return c.JSON(st)
}

// GET /admin/api/notifications/logs
func (h *NotificationHandler) Logs(c *fiber.Ctx) error {
	logs, err := h.Notify.Logs(c.UserContext())
	if err != nil {
		return fail(c, "admin.notifications.logs.fail", err)
	}
	return c.JSON(fiber.Map{"logs": logs})
}
