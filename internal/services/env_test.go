package services_test

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"superloja/internal/repos"
	"superloja/internal/services"
	"superloja/internal/storage"
)

// env wires every service over one seeded in-memory database.
type env struct {
	db       *sqlx.DB
	media    *storage.Store
	settings *services.SettingsService
	notify   *services.NotificationService
	catalog  *services.CatalogService
	cart     *services.CartService
	orders   *services.OrderService
	auctions *services.AuctionService
	images   *services.ImageService
	chatbot  *services.ChatbotService
	requests *services.RequestService
	inv      *services.InventoryService
	auth     *services.AuthService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvAt(t, ":memory:")
}

// newEnvAt is newEnv over dsn. A file path gives a pooled WAL database, where
// transactions on separate connections really do overlap.
func newEnvAt(t *testing.T, dsn string) *env {
	t.Helper()
	db, err := repos.OpenDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	media, err := storage.New(t.TempDir(), "/media")
	require.NoError(t, err)

	e := &env{db: db, media: media}
	e.settings = services.NewSettingsService(db)
	e.notify = services.NewNotificationService(repos.NewNotificationRepo(db))
	e.catalog = services.NewCatalogService(repos.NewCategoryRepo(db), repos.NewProductRepo(db), repos.NewImageRepo(db), repos.NewPromotionRepo(db))
	e.cart = services.NewCartService(repos.NewCartRepo(db), repos.NewProductRepo(db), e.catalog)
	e.orders = services.NewOrderService(db, e.notify, media.Bucket(storage.PaymentProofs))
	e.auctions = services.NewAuctionService(db, e.notify, e.settings)
	e.images = services.NewImageService(db, media.Bucket(storage.ProductImages))
	e.chatbot = services.NewChatbotService(db, e.settings)
	e.requests = services.NewRequestService(repos.NewRequestRepo(db))
	e.inv = services.NewInventoryService(repos.NewProductRepo(db), e.settings)
	e.auth = &services.AuthService{Users: repos.NewUserRepo(db), Carts: repos.NewCartRepo(db), AdminEmail: "boss@superloja.test"}
	return e
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func checkout() services.CheckoutInput {
	return services.CheckoutInput{
		CustomerName:    "Ana Souza",
		CustomerEmail:   "ana@superloja.test",
		CustomerPhone:   "(11) 98888-7777",
		ShippingAddress: "Rua das Flores, 10 - São Paulo",
		Fulfillment:     "delivery",
		PaymentMethod:   "pix",
	}
}
