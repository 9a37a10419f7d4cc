package httpapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superloja/internal/services"
)

func TestAccessDenialsAreLogged(t *testing.T) {
	a := newTestApp(t)
	ctx := t.Context()

	owner := "sid-owner"
	require.NoError(t, a.deps.CartHandler.Cart.Add(ctx, owner, "smartwatch-01", 1))
	oid, err := a.deps.OrderHandler.Order.Place(ctx, owner, "", services.CheckoutInput{
		CustomerName:  "Ana",
		CustomerEmail: "ana@superloja.test",
		CustomerPhone: "61999990000",
		Fulfillment:   "pickup",
		PaymentMethod: "pix",
	})
	require.NoError(t, err)

	var stranger, admin *http.Response
	entries := captureLogs(t, func() {
		stranger = a.get(t, "/order/"+oid, &http.Cookie{Name: "sid", Value: "sid-stranger"})
		admin = a.get(t, "/admin/api/orders", a.session(t, "sid-user", "u-bruno"))
	})
	assert.Equal(t, http.StatusNotFound, stranger.StatusCode)
	assert.Equal(t, http.StatusForbidden, admin.StatusCode)

	e, ok := findLog(entries, "access.denied.order")
	require.True(t, ok, "access.denied.order not logged")
	assert.Equal(t, oid, e.Fields["order_id"])
	_, ok = findLog(entries, "access.denied.admin")
	assert.True(t, ok, "access.denied.admin not logged")
}
