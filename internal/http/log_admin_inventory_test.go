package httpapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminInventorySaveIsAudited(t *testing.T) {
	a := newTestApp(t)
	admin := a.session(t, "sid-admin", "u-admin")
	tok := a.csrfToken(t)

	var resp *http.Response
	entries := captureLogs(t, func() {
		resp = a.sendJSON(t, http.MethodPost, "/admin/api/stock", tok, map[string]any{"product_id": "panela-01", "qty": 30}, admin)
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, readBody(t, resp))

	e, ok := findLog(entries, "admin.inventory.save")
	require.True(t, ok, "admin.inventory.save not logged")
	assert.Equal(t, "panela-01", e.Fields["product"])
	assert.EqualValues(t, 30, e.Fields["qty"])

	neg := a.sendJSON(t, http.MethodPost, "/admin/api/stock", tok, map[string]any{"product_id": "panela-01", "qty": -1}, admin)
	assert.Equal(t, http.StatusBadRequest, neg.StatusCode)
}
