package handlers

import (
	"github.com/gofiber/fiber/v2"

	"superloja/internal/log"
	"superloja/internal/services"
)

type SettingsHandler struct {
	Settings *services.SettingsService
}

// GET /api/v1/settings returns what the storefront shows: name, contact and shipping terms.
func (h *SettingsHandler) Public(c *fiber.Ctx) error {
	st, err := h.Settings.Load(c.UserContext())
	if err != nil {
		return fail(c, "settings.load.fail", err)
	}
	return c.JSON(fiber.Map{
		"store_name":                    st.StoreName,
		"contact_email":                 st.ContactEmail,
		"whatsapp":                      st.WhatsApp,
		"currency":                      st.Currency,
		"shipping_fee_cents":            st.ShippingFee,
		"free_shipping_threshold_cents": st.FreeShippingThreshold,
		"auctions_enabled":              st.AuctionsEnabled,
		"chatbot_enabled":               st.ChatbotEnabled,
		"maintenance_mode":              st.MaintenanceMode,
	})
}

// GET /admin/api/settings
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	st, err := h.Settings.Load(c.UserContext())
	if err != nil {
		return fail(c, "admin.settings.load.fail", err)
	}
	return c.JSON(st)
}

// PUT /admin/api/settings
func (h *SettingsHandler) Save(c *fiber.Ctx) error {
	st, err := h.Settings.Load(c.UserContext())
	if err != nil {
		return fail(c, "admin.settings.load.fail", err)
	}
	// fields missing from the body keep their current value
	if err := c.BodyParser(&st); err != nil {
		return badRequest(c, "body")
	}
	if err := h.Settings.Save(c.UserContext(), st); err != nil {
		return fail(c, "admin.settings.save.fail", err)
	}
	log.Audit(c, "admin.settings.save", map[string]any{"maintenance": st.MaintenanceMode, "auctions": st.AuctionsEnabled})
	return c.JSON(st)
}

// GET /admin/api/ai-settings
func (h *SettingsHandler) GetAI(c *fiber.Ctx) error {
	ai, err := h.Settings.LoadAI(c.UserContext())
	if err != nil {
		return fail(c, "admin.ai_settings.load.fail", err)
	}
	return c.JSON(ai)
}

// PUT /admin/api/ai-settings
func (h *SettingsHandler) SaveAI(c *fiber.Ctx) error {
	ai, err := h.Settings.LoadAI(c.UserContext())
	if err != nil {
		return fail(c, "admin.ai_settings.load.fail", err)
	}
	if err := c.BodyParser(&ai); err != nil {
		return badRequest(c, "body")
	}
	if err := h.Settings.SaveAI(c.UserContext(), ai); err != nil {
		return fail(c, "admin.ai_settings.save.fail", err)
	}
	log.Audit(c, "admin.ai_settings.save", map[string]any{"enabled": ai.Enabled, "min_confidence": ai.MinConfidence})
	return c.JSON(ai)
}
