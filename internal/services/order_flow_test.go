package services_test

import (
	"context"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superloja/internal/domain"
	"superloja/internal/invoice"
	"superloja/internal/repos"
	"superloja/internal/services"
)

func TestOrderFlow_AddCartCheckout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sid := "test-session"

	require.NoError(t, e.cart.Add(ctx, sid, "fone-bt-01", 2))

	cv, err := e.cart.View(ctx, sid)
	require.NoError(t, err)
	require.Len(t, cv.Items, 1)
	assert.Equal(t, domain.Money(39980), cv.Total)

	oid, err := e.orders.Place(ctx, sid, "", checkout())
	require.NoError(t, err)
	require.NotEmpty(t, oid)

	qty, err := repos.NewProductRepo(e.db).Stock(ctx, "fone-bt-01")
	require.NoError(t, err)
	assert.Equal(t, 23, qty)

	d, err := e.orders.Get(ctx, oid, services.Viewer{SessionID: sid})
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelWeb, d.Order.Channel)
	assert.Equal(t, "pending", d.Order.Status)
	assert.Equal(t, domain.Money(39980), d.Order.Total)
	assert.Equal(t, d.Order.Total, domain.OrderTotal(d.Items))
	assert.Equal(t, d.Order.Total, invoice.Doc{Order: d.Order, Items: d.Items}.Total())

	after, err := e.cart.View(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, after.Items, "cart is cleared by checkout")
}

func TestOrderFlow_RepeatedAddKeepsOneLine(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.cart.Add(ctx, "s1", "tenis-01", 1))
	require.NoError(t, e.cart.Add(ctx, "s1", "tenis-01", 2))

	cv, err := e.cart.View(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cv.Items, 1)
	assert.Equal(t, 3, cv.Items[0].Quantity)
	assert.Equal(t, domain.Money(3*29990), cv.Total)
}

func TestOrderFlow_InsufficientStockRollsBack(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	prods := repos.NewProductRepo(e.db)

	require.NoError(t, e.cart.Add(ctx, "s1", "fone-bt-01", 1))
	require.NoError(t, e.cart.Add(ctx, "s1", "panela-01", 4))
	// someone else buys the last pans before checkout
	require.NoError(t, prods.SetStock(ctx, "panela-01", 2))

	_, err := e.orders.Place(ctx, "s1", "", checkout())
	require.ErrorIs(t, err, services.ErrInsufficientStock)

	qty, err := prods.Stock(ctx, "fone-bt-01")
	require.NoError(t, err)
	assert.Equal(t, 25, qty, "earlier line must not keep its decrement")

	cv, err := e.cart.View(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, cv.Items, 2, "cart survives a failed checkout")

	latest, err := e.orders.Latest(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, latest)
}

func TestOrderFlow_CartRejects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	assert.ErrorIs(t, e.cart.Add(ctx, "s1", "panela-01", 5), services.ErrInsufficientStock)
	assert.ErrorIs(t, e.cart.Add(ctx, "s1", "relogio-vintage", 1), services.ErrInvalidInput)
	assert.ErrorIs(t, e.cart.Add(ctx, "s1", "nope", 1), services.ErrNotFound)
	assert.ErrorIs(t, e.cart.SetQuantity(ctx, "s1", "fone-bt-01", 51), services.ErrInvalidInput)
}

func TestOrderFlow_RepeatedAddsStayWithinStock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.cart.Add(ctx, "s1", "panela-01", 3))
	assert.ErrorIs(t, e.cart.Add(ctx, "s1", "panela-01", 2), services.ErrInsufficientStock)
	require.NoError(t, e.cart.Add(ctx, "s1", "panela-01", 1))
	assert.ErrorIs(t, e.cart.Add(ctx, "s1", "panela-01", 1), services.ErrInsufficientStock)

	cv, err := e.cart.View(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cv.Items, 1)
	assert.Equal(t, 4, cv.Items[0].Quantity)

	assert.ErrorIs(t, e.cart.SetQuantity(ctx, "s1", "panela-01", 5), services.ErrInsufficientStock)
}

func TestOrderFlow_RepeatedAddsStayWithinLineCap(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, repos.NewProductRepo(e.db).SetStock(ctx, "tenis-01", 500))

	require.NoError(t, e.cart.Add(ctx, "s1", "tenis-01", services.MaxLineQty))
	assert.ErrorIs(t, e.cart.Add(ctx, "s1", "tenis-01", 1), services.ErrInvalidInput)

	cv, err := e.cart.View(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cv.Items, 1)
	assert.Equal(t, services.MaxLineQty, cv.Items[0].Quantity)
}

func TestOrderFlow_SummaryMatchesOrderAfterRepricing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.cart.Add(ctx, "s1", "fone-bt-01", 2))
	require.NoError(t, e.cart.Add(ctx, "s1", "tenis-01", 1))

	// list price goes up and a promotion starts after the items were added
	_, err := e.db.Exec(`UPDATE products SET price_cents = 25990 WHERE id = 'fone-bt-01'`)
	require.NoError(t, err)
	_, err = e.catalog.CreatePromotion(ctx, services.PromotionInput{
		Title:           "Tênis em conta",
		ProductID:       "tenis-01",
		DiscountPercent: 10,
		StartsAt:        time.Now().Add(-time.Hour),
		EndsAt:          time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	cv, err := e.cart.View(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cv.Items, 2)
	var sum domain.Money
	for _, it := range cv.Items {
		assert.Equal(t, it.UnitPrice*domain.Money(it.Quantity), it.Subtotal)
		sum += it.Subtotal
	}
	assert.Equal(t, sum, cv.Total)

	oid, err := e.orders.Place(ctx, "s1", "", checkout())
	require.NoError(t, err)
	d, err := e.orders.Get(ctx, oid, services.Viewer{SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, cv.Total, d.Order.Total)
	assert.Equal(t, cv.Total, invoice.Doc{Order: d.Order, Items: d.Items}.Total())
	assert.Equal(t, domain.Money(2*25990+26991), d.Order.Total)
}

func TestOrderFlow_EmptyCartAndBadInput(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.orders.Place(ctx, "empty", "", checkout())
	assert.ErrorIs(t, err, services.ErrCartEmpty)

	require.NoError(t, e.cart.Add(ctx, "s1", "tenis-01", 1))

	bad := checkout()
	bad.CustomerEmail = "not-an-email"
	_, err = e.orders.Place(ctx, "s1", "", bad)
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	noAddr := checkout()
	noAddr.ShippingAddress = ""
	_, err = e.orders.Place(ctx, "s1", "", noAddr)
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	pickup := noAddr
	pickup.Fulfillment = "pickup"
	_, err = e.orders.Place(ctx, "s1", "", pickup)
	assert.NoError(t, err)
}

func TestOrderFlow_PromotionPrice(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.catalog.CreatePromotion(ctx, services.PromotionInput{
		Title:           "Semana do som",
		ProductID:       "fone-bt-01",
		DiscountPercent: 20,
		StartsAt:        time.Now().Add(-time.Hour),
		EndsAt:          time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = e.catalog.CreatePromotion(ctx, services.PromotionInput{
		Title:           "Eletrônicos",
		CategoryID:      "eletronicos",
		DiscountPercent: 10,
		StartsAt:        time.Now().Add(-time.Hour),
		EndsAt:          time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	d, err := e.catalog.GetProduct(ctx, "fone-bt-01")
	require.NoError(t, err)
	assert.Equal(t, domain.Money(15992), d.EffectivePrice)

	require.NoError(t, e.cart.Add(ctx, "s1", "fone-bt-01", 1))
	require.NoError(t, e.cart.Add(ctx, "s1", "smartwatch-01", 1))
	oid, err := e.orders.Place(ctx, "s1", "", checkout())
	require.NoError(t, err)

	od, err := e.orders.Get(ctx, oid, services.Viewer{Admin: true})
	require.NoError(t, err)
	assert.Equal(t, domain.Money(15992+31491), od.Total)
}

func TestOrderFlow_PromotionNeedsOneTarget(t *testing.T) {
	e := newEnv(t)
	_, err := e.catalog.CreatePromotion(context.Background(), services.PromotionInput{
		Title:           "Tudo",
		ProductID:       "fone-bt-01",
		CategoryID:      "eletronicos",
		DiscountPercent: 10,
		StartsAt:        time.Now(),
		EndsAt:          time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestOrderFlow_POSMergesLines(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	oid, err := e.orders.PlacePOS(ctx, services.POSInput{
		Items: []services.Line{
			{ProductID: "tenis-01", Quantity: 1},
			{ProductID: "fone-bt-01", Quantity: 1},
			{ProductID: "tenis-01", Quantity: 2},
		},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	d, err := e.orders.Get(ctx, oid, services.Viewer{Admin: true})
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelPOS, d.Order.Channel)
	assert.Equal(t, "paid", d.Order.PaymentStatus)
	assert.Equal(t, "delivered", d.Order.Status)
	assert.Equal(t, "Balcão", d.Order.CustomerName)
	require.Len(t, d.Items, 2)
	assert.Equal(t, domain.Money(3*29990+19990), d.Total)

	qty, err := repos.NewProductRepo(e.db).Stock(ctx, "tenis-01")
	require.NoError(t, err)
	assert.Equal(t, 9, qty)
}

func TestOrderFlow_OwnershipAndStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.cart.Add(ctx, "ana-session", "tenis-01", 1))
	oid, err := e.orders.Place(ctx, "ana-session", "u-ana", checkout())
	require.NoError(t, err)

	_, err = e.orders.Get(ctx, oid, services.Viewer{SessionID: "other", UserID: "u-bruno"})
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = e.orders.Get(ctx, oid, services.Viewer{UserID: "u-ana"})
	assert.NoError(t, err)

	assert.ErrorIs(t, e.orders.UpdateStatus(ctx, oid, "teleported", ""), services.ErrInvalidInput)
	require.NoError(t, e.orders.UpdateStatus(ctx, oid, "shipped", "paid"))

	hist, err := e.orders.History(ctx, "u-ana")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "shipped", hist[0].Status)
	assert.Equal(t, "paid", hist[0].PaymentStatus)

	notes, err := e.notify.List(ctx, "u-ana")
	require.NoError(t, err)
	kinds := map[string]bool{}
	for _, n := range notes {
		kinds[n.Kind] = true
	}
	assert.True(t, kinds[domain.NotifyOrderPlaced])
	assert.True(t, kinds[domain.NotifyOrderStatus])
}

func TestOrderFlow_PaymentProof(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.cart.Add(ctx, "s1", "tenis-01", 1))
	oid, err := e.orders.Place(ctx, "s1", "", checkout())
	require.NoError(t, err)

	_, err = e.orders.AttachPaymentProof(ctx, oid, services.Viewer{SessionID: "s2"}, pngBytes(t, 4, 4))
	assert.ErrorIs(t, err, services.ErrNotFound)

	url, err := e.orders.AttachPaymentProof(ctx, oid, services.Viewer{SessionID: "s1"}, pngBytes(t, 4, 4))
	require.NoError(t, err)
	assert.Contains(t, url, "/api/v1/orders/"+oid+"/payment-proof/")

	d, err := e.orders.Get(ctx, oid, services.Viewer{Admin: true})
	require.NoError(t, err)
	assert.Equal(t, url, d.Order.PaymentProofURL)

	file := path.Base(url)
	data, ct, err := e.orders.PaymentProof(ctx, oid, file, services.Viewer{Admin: true})
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, pngBytes(t, 4, 4), data)

	_, _, err = e.orders.PaymentProof(ctx, oid, file, services.Viewer{SessionID: "s2"})
	assert.ErrorIs(t, err, services.ErrNotFound)

	// a second upload replaces the first; the old file is no longer reachable
	next, err := e.orders.AttachPaymentProof(ctx, oid, services.Viewer{SessionID: "s1"}, pngBytes(t, 4, 4))
	require.NoError(t, err)
	require.NotEqual(t, url, next)
	_, _, err = e.orders.PaymentProof(ctx, oid, file, services.Viewer{SessionID: "s1"})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestNotifications_RespectSettings(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	off := domain.DefaultNotificationSettings("u-bruno")
	off.OrderPlaced = false
	require.NoError(t, e.notify.SaveSettings(ctx, "u-bruno", off))

	sent, err := e.notify.Send(ctx, domain.Notification{UserID: "u-bruno", Kind: domain.NotifyOrderPlaced, Title: "x"})
	require.NoError(t, err)
	assert.False(t, sent)

	sent, err = e.notify.Send(ctx, domain.Notification{UserID: "u-bruno", Kind: domain.NotifyOutbid, Title: "y"})
	require.NoError(t, err)
	assert.True(t, sent)

	n, err := e.notify.Unread(ctx, "u-bruno")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	logs, err := e.notify.Logs(ctx)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}
