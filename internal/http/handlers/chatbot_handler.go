package handlers

import (
	"bytes"
	"time"

	"github.com/gofiber/fiber/v2"

	"superloja/internal/log"
	"superloja/internal/services"
)

type ChatbotHandler struct {
	Cookies
	Chatbot *services.ChatbotService
}

// GET /api/v1/chat
func (h *ChatbotHandler) Greeting(c *fiber.Ctx) error {
	g, err := h.Chatbot.Greeting(c.UserContext())
	if err != nil {
		return fail(c, "chat.greeting.fail", err)
	}
	return c.JSON(fiber.Map{"greeting": g})
}

type chatInput struct {
	Message string `json:"message" form:"message"`
}

// POST /api/v1/chat
func (h *ChatbotHandler) Ask(c *fiber.Ctx) error {
	var in chatInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	reply, err := h.Chatbot.Answer(c.UserContext(), h.SID(c), in.Message)
	if err != nil {
		return fail(c, "chat.answer.fail", err)
	}
	return c.JSON(reply)
}

type feedbackInput struct {
	Helpful *bool  `json:"helpful"`
	Comment string `json:"comment"`
}

// POST /api/v1/chat/:id/feedback
func (h *ChatbotHandler) Feedback(c *fiber.Ctx) error {
	var in feedbackInput
	if err := c.BodyParser(&in); err != nil || in.Helpful == nil {
		return badRequest(c, "helpful")
	}
	if err := h.Chatbot.Feedback(c.UserContext(), c.Params("id"), *in.Helpful, in.Comment); err != nil {
		return fail(c, "chat.feedback.fail", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ---------- admin ----------

// GET /admin/api/knowledge
func (h *ChatbotHandler) Knowledge(c *fiber.Ctx) error {
	es, err := h.Chatbot.ListKnowledge(c.UserContext())
	if err != nil {
		return fail(c, "admin.knowledge.list.fail", err)
	}
	return c.JSON(fiber.Map{"entries": es})
}

// POST /admin/api/knowledge and PUT /admin/api/knowledge/:id
func (h *ChatbotHandler) SaveKnowledge(c *fiber.Ctx) error {
	var in services.KnowledgeInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	id := c.Params("id")
	e, err := h.Chatbot.SaveKnowledge(c.UserContext(), id, in)
	if err != nil {
		return fail(c, "admin.knowledge.save.fail", err)
	}
	log.Audit(c, "admin.knowledge.save", map[string]any{"knowledge_id": e.ID})
	if id == "" {
		return c.Status(fiber.StatusCreated).JSON(e)
	}
	return c.JSON(e)
}

// DELETE /admin/api/knowledge/:id
func (h *ChatbotHandler) DeleteKnowledge(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Chatbot.DeleteKnowledge(c.UserContext(), id); err != nil {
		return fail(c, "admin.knowledge.delete.fail", err)
	}
	log.Audit(c, "admin.knowledge.delete", map[string]any{"knowledge_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /admin/api/knowledge/import with a YAML body
func (h *ChatbotHandler) Import(c *fiber.Ctx) error {
	n, err := h.Chatbot.ImportYAML(c.UserContext(), bytes.NewReader(c.Body()))
	if err != nil {
		return fail(c, "admin.knowledge.import.fail", err)
	}
	log.Audit(c, "admin.knowledge.import", map[string]any{"entries": n})
	return c.JSON(fiber.Map{"imported": n})
}

// GET /admin/api/knowledge/export
func (h *ChatbotHandler) Export(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.Chatbot.ExportYAML(c.UserContext(), &buf); err != nil {
		return fail(c, "admin.knowledge.export.fail", err)
	}
	c.Set(fiber.HeaderContentType, "application/yaml")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="knowledge.yaml"`)
	return c.Send(buf.Bytes())
}

func sinceDays(c *fiber.Ctx, def int) time.Time {
	days := c.QueryInt("days", def)
	if days < 1 || days > 366 {
		days = def
	}
	return time.Now().AddDate(0, 0, -days)
}

// GET /admin/api/insights
func (h *ChatbotHandler) Insights(c *fiber.Ctx) error {
	ins, err := h.Chatbot.Insights(c.UserContext())
	if err != nil {
		return fail(c, "admin.insights.list.fail", err)
	}
	return c.JSON(fiber.Map{"insights": ins})
}

// POST /admin/api/insights/recompute?days=30
func (h *ChatbotHandler) Recompute(c *fiber.Ctx) error {
	ins, err := h.Chatbot.Recompute(c.UserContext(), sinceDays(c, 30))
	if err != nil {
		return fail(c, "admin.insights.recompute.fail", err)
	}
	log.Audit(c, "admin.insights.recompute", map[string]any{"insights": len(ins)})
	return c.JSON(fiber.Map{"insights": ins})
}

// GET /admin/api/conversations?days=7
func (h *ChatbotHandler) Conversations(c *fiber.Ctx) error {
	cs, err := h.Chatbot.Conversations(c.UserContext(), sinceDays(c, 7))
	if err != nil {
		return fail(c, "admin.conversations.list.fail", err)
	}
	return c.JSON(fiber.Map{"conversations": cs})
}
