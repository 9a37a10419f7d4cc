// Package httpapi assembles the fiber app: middleware, limits and the route table.
package httpapi

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"superloja/internal/cache"
	"superloja/internal/config"
	"superloja/internal/http/handlers"
	applog "superloja/internal/log"
	"superloja/internal/metrics"
	"superloja/internal/storage"
)

// MaxBody bounds every request except uploads, which get handlers.MaxUpload.
const MaxBody = 1 << 20

type Rate struct {
	Max    int
	Window time.Duration
}

type Limits struct {
	Global       Rate
	Login        Rate
	Search       Rate
	Availability Rate
	Bids         Rate
	Chat         Rate
	Analytics    Rate
}

func DefaultLimits() Limits {
	return Limits{
		Global:       Rate{60, time.Minute},
		Login:        Rate{5, 10 * time.Minute},
		Search:       Rate{20, time.Minute},
		Availability: Rate{15, 30 * time.Second},
		Bids:         Rate{10, time.Minute},
		Chat:         Rate{20, time.Minute},
		Analytics:    Rate{120, time.Minute},
	}
}

type Options struct {
	Config config.Config
	DB     *sqlx.DB
	Media  *storage.Store

	// Cache is shared by the limiters, csrf tokens and geo-IP lookups.
	Cache  cache.Store
	Limits Limits

	// AccessLog turns on the fiber request logger.
	AccessLog bool
}

func uploadRoute(path string) bool {
	switch {
	case strings.HasPrefix(path, "/api/v1/orders/") && strings.HasSuffix(path, "/payment-proof"):
		return true
	case strings.HasPrefix(path, "/admin/api/products/") && strings.Contains(path, "/images"):
		return true
	case strings.HasPrefix(path, "/admin/api/images/"):
		return true
	}
	return false
}

func limitBody(c *fiber.Ctx) error {
	if uploadRoute(c.Path()) {
		return c.Next()
	}
	if c.Request().Header.ContentLength() > MaxBody || len(c.Request().Body()) > MaxBody {
		applog.Security(c, "request.too_large", map[string]any{"length": c.Request().Header.ContentLength()})
		return fiber.ErrRequestEntityTooLarge
	}
	return c.Next()
}

func newLimiter(store cache.Store, name string, r Rate, onHit func(c *fiber.Ctx) error) fiber.Handler {
	cfg := limiter.Config{
		Max:        r.Max,
		Expiration: r.Window,
		Storage:    store,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + name
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate."+name+".hit", nil)
			if onHit != nil {
				return onHit(c)
			}
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Muitas requisições, tente novamente em instantes"})
		},
	}
	return limiter.New(cfg)
}

func csrfExtractor(c *fiber.Ctx) (string, error) {
	if tok := c.Get(handlers.CSRFHeader); tok != "" {
		return tok, nil
	}
	return csrf.CsrfFromForm("csrf")(c)
}

// New builds the app and returns it with the wired dependencies.
func New(o Options) (*fiber.App, *handlers.Deps) {
	cfg := o.Config
	engine := html.New(cfg.TemplatesDir, ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    handlers.MaxUpload + MaxBody,
	})

	d := handlers.NewDeps(o.DB, cfg, o.Media, o.Cache)
	lim := o.Limits

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	if o.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New())
	app.Use(limitBody)
	app.Use(handlers.LoadUser(d.Auth))
	app.Use(limiter.New(limiter.Config{
		Max:        lim.Global.Max,
		Expiration: lim.Global.Window,
		Storage:    o.Cache,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|global"
		},
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/media/") || p == "/metrics" || p == "/healthz"
		},
	}))
	app.Use(csrf.New(csrf.Config{
		Extractor:      csrfExtractor,
		CookieName:     handlers.CSRFCookie,
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		ContextKey:     "csrf",
		Storage:        o.Cache,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/v1/analytics/")
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			if strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Path(), "/admin/api/") {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Falha na verificação de segurança. Recarregue a página."})
			}
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Falha na verificação de segurança. Recarregue a página."})
		},
	}))

	maintenance := handlers.Maintenance(d.Settings, d.Auth)
	loginLimiter := newLimiter(o.Cache, "login", lim.Login, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Muitas tentativas. Tente novamente mais tarde."})
	})

	// ---------- Ops ----------
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	app.Get("/media/*", d.MediaHandler.Serve)

	// ---------- Pages ----------
	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", loginLimiter, d.AuthHandler.Login)
	app.Post("/logout", d.AuthHandler.Logout)
	app.Get("/order/:id", d.OrderHandler.Page)

	// ---------- Storefront API ----------
	api := app.Group("/api/v1")
	api.Post("/auth/register", newLimiter(o.Cache, "register", lim.Login, nil), d.AuthHandler.Register)
	api.Get("/me", handlers.RequireUser(), d.AuthHandler.Me)
	api.Put("/me", handlers.RequireUser(), d.AuthHandler.UpdateProfile)
	api.Get("/settings", d.SettingsHandler.Public)

	api.Get("/categories", d.CategoryHandler.List)
	api.Get("/categories/:id/products", d.CategoryHandler.Products)
	api.Get("/search", newLimiter(o.Cache, "search", lim.Search, nil), d.SearchHandler.Search)
	api.Get("/products/:id", d.ProductHandler.Detail)
	api.Get("/availability", newLimiter(o.Cache, "availability", lim.Availability, nil), d.InventoryHandler.Check)

	cart := api.Group("/cart", maintenance)
	cart.Get("/", d.CartHandler.View)
	cart.Post("/", d.CartHandler.Add)
	cart.Put("/:productId", d.CartHandler.SetQuantity)
	cart.Delete("/:productId", d.CartHandler.Remove)

	api.Get("/wishlist", d.WishlistHandler.List)
	api.Post("/wishlist", d.WishlistHandler.Save)
	api.Delete("/wishlist/:productId", d.WishlistHandler.Unsave)

	api.Post("/orders", maintenance, d.OrderHandler.Place)
	api.Get("/orders", handlers.RequireUser(), d.OrderHandler.History)
	api.Get("/orders/:id", d.OrderHandler.View)
	api.Get("/orders/:id/invoice.pdf", d.OrderHandler.Invoice)
	api.Post("/orders/:id/payment-proof", d.OrderHandler.PaymentProof)
	api.Get("/orders/:id/payment-proof/:file", d.OrderHandler.ViewPaymentProof)

	api.Get("/auctions", d.AuctionHandler.List)
	api.Get("/auctions/:id", d.AuctionHandler.View)
	api.Post("/auctions/:id/bids", newLimiter(o.Cache, "bids", lim.Bids, nil), handlers.RequireUser(), maintenance, d.AuctionHandler.Bid)

	chatLimiter := newLimiter(o.Cache, "chat", lim.Chat, nil)
	api.Get("/chat", d.ChatbotHandler.Greeting)
	api.Post("/chat", chatLimiter, d.ChatbotHandler.Ask)
	api.Post("/chat/:id/feedback", chatLimiter, d.ChatbotHandler.Feedback)

	api.Post("/requests", d.RequestHandler.Submit)

	notif := api.Group("/notifications", handlers.RequireUser())
	notif.Get("/", d.NotificationHandler.List)
	notif.Get("/settings", d.NotificationHandler.Settings)
	notif.Put("/settings", d.NotificationHandler.SaveSettings)
	notif.Post("/:id/read", d.NotificationHandler.MarkRead)

	beacons := api.Group("/analytics", newLimiter(o.Cache, "analytics", lim.Analytics, nil))
	beacons.Post("/pageview", d.AnalyticsHandler.PageView)
	beacons.Post("/event", d.AnalyticsHandler.Event)
	beacons.Post("/leave", d.AnalyticsHandler.Leave)

	// ---------- Admin ----------
	requireAdmin := handlers.RequireAdmin(d.Auth)
	app.Get("/admin", requireAdmin, d.AdminHandler.Home)

	adm := app.Group("/admin/api", requireAdmin)
	adm.Get("/dashboard", d.AdminHandler.Overview)
	adm.Get("/users", d.AdminHandler.Users)
	adm.Delete("/users/:id", d.AdminHandler.DeleteUser)

	adm.Post("/products", d.ProductHandler.Create)
	adm.Put("/products/:id", d.ProductHandler.Update)
	adm.Delete("/products/:id", d.ProductHandler.Delete)
	adm.Get("/products/:id/images", d.MediaHandler.ListImages)
	adm.Post("/products/:id/images", d.MediaHandler.UploadImage)
	adm.Delete("/products/:id/images/:imageId", d.MediaHandler.RemoveImage)
	adm.Get("/promotions", d.ProductHandler.Promotions)
	adm.Post("/promotions", d.ProductHandler.CreatePromotion)
	adm.Delete("/promotions/:id", d.ProductHandler.DeletePromotion)
	adm.Get("/stock/low", d.InventoryHandler.Low)
	adm.Post("/stock", d.InventoryHandler.Save)

	adm.Get("/orders", d.OrderHandler.Latest)
	adm.Post("/orders/:id/status", d.OrderHandler.UpdateStatus)
	adm.Post("/pos", d.OrderHandler.PlacePOS)
	adm.Get("/pos/:id/receipt.pdf", d.OrderHandler.Receipt)

	adm.Post("/auctions/close", d.AuctionHandler.CloseDue)
	adm.Put("/auctions/:id", d.AuctionHandler.Configure)

	adm.Get("/analytics", d.AnalyticsHandler.Report)

	adm.Get("/knowledge", d.ChatbotHandler.Knowledge)
	adm.Post("/knowledge", d.ChatbotHandler.SaveKnowledge)
	adm.Post("/knowledge/import", d.ChatbotHandler.Import)
	adm.Get("/knowledge/export", d.ChatbotHandler.Export)
	adm.Put("/knowledge/:id", d.ChatbotHandler.SaveKnowledge)
	adm.Delete("/knowledge/:id", d.ChatbotHandler.DeleteKnowledge)
	adm.Get("/insights", d.ChatbotHandler.Insights)
	adm.Post("/insights/recompute", d.ChatbotHandler.Recompute)
	adm.Get("/conversations", d.ChatbotHandler.Conversations)

	adm.Get("/settings", d.SettingsHandler.Get)
	adm.Put("/settings", d.SettingsHandler.Save)
	adm.Get("/ai-settings", d.SettingsHandler.GetAI)
	adm.Put("/ai-settings", d.SettingsHandler.SaveAI)
	adm.Get("/notifications/logs", d.NotificationHandler.Logs)
	adm.Get("/requests", d.RequestHandler.List)
	adm.Post("/requests/:id/status", d.RequestHandler.SetStatus)

	adm.Post("/images/edit", d.MediaHandler.Edit)
	adm.Post("/images/remove-background", d.MediaHandler.RemoveBackground)
	adm.Post("/banners", d.MediaHandler.Banner)

	app.Use(handlers.NotFound)
	return app, d
}
