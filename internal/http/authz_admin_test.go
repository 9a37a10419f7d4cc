package httpapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminGuardRequiresAdmin(t *testing.T) {
	a := newTestApp(t)

	anon := a.get(t, "/admin")
	assert.Equal(t, http.StatusFound, anon.StatusCode)
	assert.Equal(t, "/login", anon.Header.Get("Location"))
	assert.Equal(t, http.StatusUnauthorized, a.get(t, "/admin/api/dashboard").StatusCode)

	customer := a.session(t, "sid-user", "u-ana")
	assert.Equal(t, http.StatusForbidden, a.get(t, "/admin", customer).StatusCode)
	assert.Equal(t, http.StatusForbidden, a.get(t, "/admin/api/dashboard", customer).StatusCode)

	admin := a.session(t, "sid-admin", "u-admin")
	resp := a.get(t, "/admin/api/dashboard", admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	for _, key := range []string{"today", "last_30_days", "low_stock", "active_auctions", "open_requests"} {
		assert.Contains(t, body, key)
	}
}

func TestAdminUsersListsCustomersOnly(t *testing.T) {
	a := newTestApp(t)
	admin := a.session(t, "sid-admin", "u-admin")

	resp := a.get(t, "/admin/api/users", admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "ana@superloja.test")
	assert.NotContains(t, body, "admin@superloja.test")
}

func TestAdminDeleteUserIsAudited(t *testing.T) {
	a := newTestApp(t)
	admin := a.session(t, "sid-admin", "u-admin")
	tok := a.csrfToken(t)

	var resp *http.Response
	entries := captureLogs(t, func() {
		resp = a.sendJSON(t, http.MethodDelete, "/admin/api/users/u-bruno", tok, nil, admin)
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	e, ok := findLog(entries, "admin.users.delete")
	require.True(t, ok, "admin.users.delete log not found")
	assert.Equal(t, "u-bruno", e.Fields["user_id"])

	again := a.sendJSON(t, http.MethodDelete, "/admin/api/users/u-bruno", tok, nil, admin)
	assert.Equal(t, http.StatusNotFound, again.StatusCode)
}
