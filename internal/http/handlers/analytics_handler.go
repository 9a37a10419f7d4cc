package handlers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"superloja/internal/services"
	"superloja/internal/visitor"
)

type AnalyticsHandler struct {
	Cookies
	Analytics *services.AnalyticsService
	Tracker   *visitor.Tracker
}

// parseBeacon also accepts the text/plain JSON bodies navigator.sendBeacon produces.
func parseBeacon(c *fiber.Ctx, v any) error {
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMETextPlain) {
		return json.Unmarshal(c.Body(), v)
	}
	return c.BodyParser(v)
}

type pageViewInput struct {
	Path     string `json:"path"`
	Title    string `json:"title"`
	Referrer string `json:"referrer"`
}

// POST /api/v1/analytics/pageview
func (h *AnalyticsHandler) PageView(c *fiber.Ctx) error {
	var in pageViewInput
	if err := parseBeacon(c, &in); err != nil {
		return badRequest(c, "body")
	}
	store := newCookieStorage(c, h.Cookies)
	st := h.Tracker.Touch(store, time.Now())
	sessionID := h.Tracker.SessionID(store)
	err := h.Analytics.RecordPageView(c.UserContext(), services.PageView{
		VisitorID: st.VisitorID,
		SessionID: sessionID,
		UserID:    userID(c),
		Path:      in.Path,
		Title:     in.Title,
		Referrer:  in.Referrer,
		UserAgent: c.Get(fiber.HeaderUserAgent),
		IP:        c.IP(),
	})
	if err != nil {
		return fail(c, "analytics.pageview.fail", err)
	}
	return c.JSON(fiber.Map{"visitor_id": st.VisitorID, "session_id": sessionID, "visit": st})
}

type eventInput struct {
	EventType string          `json:"event_type"`
	Path      string          `json:"path"`
	EventData json.RawMessage `json:"event_data"`
}

// POST /api/v1/analytics/event
func (h *AnalyticsHandler) Event(c *fiber.Ctx) error {
	var in eventInput
	if err := parseBeacon(c, &in); err != nil {
		return badRequest(c, "body")
	}
	store := newCookieStorage(c, h.Cookies)
	err := h.Analytics.RecordEvent(c.UserContext(), h.Tracker.VisitorID(store), h.Tracker.SessionID(store), in.EventType, in.Path, in.EventData)
	if err != nil {
		return fail(c, "analytics.event.fail", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type leaveInput struct {
	Path     string  `json:"path"`
	Duration float64 `json:"duration_seconds"`
}

// POST /api/v1/analytics/leave
func (h *AnalyticsHandler) Leave(c *fiber.Ctx) error {
	var in leaveInput
	if err := parseBeacon(c, &in); err != nil {
		return badRequest(c, "body")
	}
	store := newCookieStorage(c, h.Cookies)
	recorded, err := h.Analytics.RecordLeave(c.UserContext(), h.Tracker.VisitorID(store), h.Tracker.SessionID(store), in.Path, in.Duration)
	if err != nil {
		return fail(c, "analytics.leave.fail", err)
	}
	return c.JSON(fiber.Map{"recorded": recorded})
}

// GET /admin/api/analytics?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *AnalyticsHandler) Report(c *fiber.Ctx) error {
	r, err := h.Analytics.Report(c.UserContext(), c.Query("from"), c.Query("to"))
	if err != nil {
		return fail(c, "admin.analytics.report.fail", err)
	}
	return c.JSON(r)
}
