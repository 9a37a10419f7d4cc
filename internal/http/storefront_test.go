package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthAndMetrics(t *testing.T) {
	a := newTestApp(t)

	assert.Contains(t, readBody(t, a.get(t, "/healthz")), `"ok":true`)

	a.get(t, "/api/v1/categories")
	resp := a.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "# TYPE")
}

func TestMediaServesFilesAndBlocksTraversal(t *testing.T) {
	a := newTestApp(t)
	root := a.deps.MediaHandler.Store.Root()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "products"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "products", "x.txt"), []byte("ok"), 0o644))

	resp := a.get(t, "/media/products/x.txt")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", readBody(t, resp))

	var blocked *http.Response
	entries := captureLogs(t, func() {
		blocked = a.get(t, "/media/%2e%2e/%2e%2e/etc/passwd")
	})
	assert.Equal(t, http.StatusNotFound, blocked.StatusCode)
	_, ok := findLog(entries, "media.traversal.block")
	assert.True(t, ok)
}

func TestMaintenanceBlocksCartWrites(t *testing.T) {
	a := newTestApp(t)
	ctx := t.Context()
	st, err := a.deps.Settings.Load(ctx)
	require.NoError(t, err)
	st.MaintenanceMode = true
	require.NoError(t, a.deps.Settings.Save(ctx, st))

	tok := a.csrfToken(t)
	resp := a.sendJSON(t, http.MethodPost, "/api/v1/cart", tok, map[string]any{"product_id": "fone-bt-01", "quantity": 1})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, http.StatusOK, a.get(t, "/api/v1/cart").StatusCode, "reads stay open")

	admin := a.session(t, "sid-admin", "u-admin")
	resp = a.sendJSON(t, http.MethodPost, "/api/v1/cart", tok, map[string]any{"product_id": "fone-bt-01", "quantity": 1}, admin)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "admins bypass maintenance")
}

func TestAnalyticsBeaconSkipsCSRF(t *testing.T) {
	a := newTestApp(t)

	raw, err := json.Marshal(map[string]string{"path": "/produtos/fone-bt-01", "title": "Fone"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/pageview", bytes.NewReader(raw))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp := a.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode, readBody(t, resp))
	assert.NotEmpty(t, cookieValue(resp, "sl_vid"))

	var views int
	require.NoError(t, a.db.Get(&views, `SELECT COUNT(*) FROM visitor_analytics`))
	assert.Equal(t, 1, views)
}

func TestCartWriteWithoutCSRFIsRejected(t *testing.T) {
	a := newTestApp(t)
	resp := a.sendJSON(t, http.MethodPost, "/api/v1/cart", "", map[string]any{"product_id": "fone-bt-01"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWishlistFlow(t *testing.T) {
	a := newTestApp(t)
	tok := a.csrfToken(t)

	add := a.sendJSON(t, http.MethodPost, "/api/v1/wishlist", tok, map[string]string{"product_id": "tenis-01"})
	require.Equal(t, http.StatusNoContent, add.StatusCode)
	sid := &http.Cookie{Name: "sid", Value: cookieValue(add, "sid")}

	var list struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	require.NoError(t, json.NewDecoder(a.get(t, "/api/v1/wishlist", sid).Body).Decode(&list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "tenis-01", list.Items[0].ID)

	del := a.sendJSON(t, http.MethodDelete, "/api/v1/wishlist/tenis-01", tok, nil, sid)
	assert.Equal(t, http.StatusNoContent, del.StatusCode)
	assert.Contains(t, readBody(t, a.get(t, "/api/v1/wishlist", sid)), `"items":[]`)

	missing := a.sendJSON(t, http.MethodPost, "/api/v1/wishlist", tok, map[string]string{"product_id": "nao-existe"}, sid)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
