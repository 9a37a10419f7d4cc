package handlers

import (
	"github.com/jmoiron/sqlx"

	"superloja/internal/cache"
	"superloja/internal/config"
	"superloja/internal/geoip"
	"superloja/internal/imageedit"
	"superloja/internal/repos"
	"superloja/internal/services"
	"superloja/internal/storage"
	"superloja/internal/visitor"
)

type Deps struct {
	Auth     *services.AuthService
	Settings *services.SettingsService
	Auctions *services.AuctionService
	Chatbot  *services.ChatbotService

	AuthHandler         *AuthHandler
	CategoryHandler     *CategoryHandler
	ProductHandler      *ProductHandler
	InventoryHandler    *InventoryHandler
	SearchHandler       *SearchHandler
	CartHandler         *CartHandler
	OrderHandler        *OrderHandler
	WishlistHandler     *WishlistHandler
	AuctionHandler      *AuctionHandler
	AnalyticsHandler    *AnalyticsHandler
	ChatbotHandler      *ChatbotHandler
	SettingsHandler     *SettingsHandler
	NotificationHandler *NotificationHandler
	RequestHandler      *RequestHandler
	MediaHandler        *MediaHandler
	AdminHandler        *AdminHandler
}

// NewDeps wires every service and handler. store backs the geo-IP cache.
func NewDeps(db *sqlx.DB, cfg config.Config, media *storage.Store, store cache.Store) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	cartRepo := repos.NewCartRepo(db)
	userRepo := repos.NewUserRepo(db)

	settingsSvc := services.NewSettingsService(db)
	notifySvc := services.NewNotificationService(repos.NewNotificationRepo(db))
	catalogSvc := services.NewCatalogService(catRepo, prodRepo, repos.NewImageRepo(db), repos.NewPromotionRepo(db))
	cartSvc := services.NewCartService(cartRepo, prodRepo, catalogSvc)
	orderSvc := services.NewOrderService(db, notifySvc, media.Bucket(storage.PaymentProofs))
	auctionSvc := services.NewAuctionService(db, notifySvc, settingsSvc)
	imageSvc := services.NewImageService(db, media.Bucket(storage.ProductImages))
	chatSvc := services.NewChatbotService(db, settingsSvc)
	requestSvc := services.NewRequestService(repos.NewRequestRepo(db))
	invSvc := services.NewInventoryService(prodRepo, settingsSvc)
	wishSvc := services.NewWishlistService(repos.NewWishlistRepo(db), prodRepo)
	geo := geoip.New(cfg.GeoIPURL, cfg.GeoIPTimeout, cfg.GeoIPCacheTTL, store)
	analyticsSvc := services.NewAnalyticsService(db, geo)
	authSvc := &services.AuthService{Users: userRepo, Carts: cartRepo, AdminEmail: cfg.AdminEmail}
	dashSvc := &services.DashboardService{
		Orders:    repos.NewOrderRepo(db),
		Inventory: invSvc,
		Auctions:  auctionSvc,
		Requests:  requestSvc,
	}

	var seg imageedit.Segmenter
	if cfg.SegmentationURL != "" {
		seg = imageedit.NewHTTPSegmenter(cfg.SegmentationURL)
	}
	k := Cookies{Secure: cfg.CookieSecure}

	return &Deps{
		Auth:     authSvc,
		Settings: settingsSvc,
		Auctions: auctionSvc,
		Chatbot:  chatSvc,

		AuthHandler:         &AuthHandler{Cookies: k, Auth: authSvc},
		CategoryHandler:     &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:      &ProductHandler{Catalog: catalogSvc, Auth: authSvc},
		InventoryHandler:    &InventoryHandler{Inv: invSvc, Catalog: catalogSvc},
		SearchHandler:       &SearchHandler{Catalog: catalogSvc},
		CartHandler:         &CartHandler{Cookies: k, Cart: cartSvc},
		OrderHandler:        &OrderHandler{Cookies: k, Order: orderSvc, Auth: authSvc, Settings: settingsSvc, BaseURL: cfg.PublicBaseURL},
		WishlistHandler:     &WishlistHandler{Cookies: k, Wish: wishSvc},
		AuctionHandler:      &AuctionHandler{Auctions: auctionSvc},
		AnalyticsHandler:    &AnalyticsHandler{Cookies: k, Analytics: analyticsSvc, Tracker: visitor.NewTracker()},
		ChatbotHandler:      &ChatbotHandler{Cookies: k, Chatbot: chatSvc},
		SettingsHandler:     &SettingsHandler{Settings: settingsSvc},
		NotificationHandler: &NotificationHandler{Notify: notifySvc},
		RequestHandler:      &RequestHandler{Requests: requestSvc},
		MediaHandler:        &MediaHandler{Store: media, Images: imageSvc, Segmenter: seg},
		AdminHandler:        &AdminHandler{Dashboard: dashSvc, Auth: authSvc},
	}
}
