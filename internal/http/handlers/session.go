package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"superloja/internal/domain"
	"superloja/internal/services"
)

// Cookies carries the attributes every cookie the store sets shares.
type Cookies struct {
	Secure bool
}

func (k Cookies) set(c *fiber.Ctx, name, value string, expires time.Time, session bool) {
	c.Cookie(&fiber.Cookie{
		Name:        name,
		Value:       value,
		Path:        "/",
		HTTPOnly:    true,
		SameSite:    fiber.CookieSameSiteLaxMode,
		Secure:      k.Secure,
		Expires:     expires,
		SessionOnly: session,
	})
}

// SID returns the browser's session id, issuing a new sid cookie when there is none.
func (k Cookies) SID(c *fiber.Ctx) string {
	if sid, ok := c.Locals("sid").(string); ok && sid != "" {
		return sid
	}
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		k.set(c, "sid", sid, time.Time{}, false)
	}
	c.Locals("sid", sid)
	return sid
}

func (k Cookies) expire(c *fiber.Ctx, name string) {
	k.set(c, name, "", time.Now().Add(-time.Hour), false)
}

// cookieStorage keeps visitor identifiers in cookies. Values written during the
// request are visible to later reads in the same request.
type cookieStorage struct {
	c       *fiber.Ctx
	cookies Cookies
	written map[string]string
}

func newCookieStorage(c *fiber.Ctx, k Cookies) *cookieStorage {
	return &cookieStorage{c: c, cookies: k, written: map[string]string{}}
}

func (s *cookieStorage) Get(key string) (string, bool) {
	if v, ok := s.written[key]; ok {
		return v, v != ""
	}
	v := s.c.Cookies(key)
	return v, v != ""
}

func (s *cookieStorage) Set(key, value string, session bool) {
	s.written[key] = value
	var expires time.Time
	if !session {
		expires = time.Now().AddDate(1, 0, 0)
	}
	s.cookies.set(s.c, key, value, expires, session)
}

func currentUser(c *fiber.Ctx) *domain.Profile {
	u, _ := c.Locals("user").(*domain.Profile)
	return u
}

func userID(c *fiber.Ctx) string {
	if u := currentUser(c); u != nil {
		return u.ID
	}
	return ""
}

// viewer describes the caller for ownership checks.
func viewer(c *fiber.Ctx, auth *services.AuthService) services.Viewer {
	v := services.Viewer{SessionID: c.Cookies("sid")}
	if u := currentUser(c); u != nil {
		v.UserID = u.ID
		v.Admin = auth.IsAdmin(u)
	}
	return v
}
