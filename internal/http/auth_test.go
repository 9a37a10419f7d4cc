package httpapi_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	httpapi "superloja/internal/http"
	"superloja/internal/repos"
)

func TestPasswordsSeededAreHashed(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	var hashes []string
	require.NoError(t, db.Select(&hashes, `SELECT password_hash FROM profiles`))
	require.NotEmpty(t, hashes, "no users seeded")
	for _, h := range hashes {
		assert.NotContains(t, h, "Passw0rd!")
		assert.True(t, strings.HasPrefix(h, "$2"), "unexpected hash format: %s", h)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("Passw0rd!")))
	}
}

func TestLoginSuccessFailAndThrottle(t *testing.T) {
	a := newTestApp(t, func(l *httpapi.Limits) { l.Login = httpapi.Rate{Max: 2, Window: time.Minute} })
	tok := a.csrfToken(t)

	bad := a.postForm(t, "/login", tok, "email=ana@superloja.test&password=Wr0ngpass!")
	assert.Equal(t, http.StatusUnauthorized, bad.StatusCode)
	assert.Contains(t, readBody(t, bad), "E-mail ou senha inválidos")

	good := a.postForm(t, "/login", tok, "email=ana@superloja.test&password=Passw0rd!")
	require.Equal(t, http.StatusFound, good.StatusCode)
	assert.Equal(t, "/", good.Header.Get("Location"))
	assert.NotEmpty(t, cookieValue(good, "sid"))

	third := a.postForm(t, "/login", tok, "email=ana@superloja.test&password=Wr0ngpass!")
	assert.Equal(t, http.StatusTooManyRequests, third.StatusCode)
}

func TestAdminLoginLandsOnBackOffice(t *testing.T) {
	a := newTestApp(t)
	tok := a.csrfToken(t)

	resp := a.postForm(t, "/login", tok, "email=admin@superloja.test&password=Passw0rd!")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin", resp.Header.Get("Location"))
}

func TestLoginWithoutCSRFIsRejected(t *testing.T) {
	a := newTestApp(t)
	resp := a.postForm(t, "/login", "forged", "email=ana@superloja.test&password=Passw0rd!")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRegisterCreatesCustomerSession(t *testing.T) {
	a := newTestApp(t)
	tok := a.csrfToken(t)

	resp := a.sendJSON(t, http.MethodPost, "/api/v1/auth/register", tok, map[string]string{
		"name":     "Carla",
		"email":    "carla@superloja.test",
		"password": "S3nha!forte",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, readBody(t, resp))
	sid := cookieValue(resp, "sid")
	require.NotEmpty(t, sid)

	me := a.get(t, "/api/v1/me", &http.Cookie{Name: "sid", Value: sid})
	require.Equal(t, http.StatusOK, me.StatusCode)
	body := readBody(t, me)
	assert.Contains(t, body, "carla@superloja.test")
	assert.Contains(t, body, `"is_admin":false`)

	dup := a.sendJSON(t, http.MethodPost, "/api/v1/auth/register", tok, map[string]string{
		"name":     "Carla",
		"email":    "CARLA@superloja.test",
		"password": "S3nha!forte",
	})
	assert.Equal(t, http.StatusConflict, dup.StatusCode)
}

func TestMeRequiresLogin(t *testing.T) {
	a := newTestApp(t)
	assert.Equal(t, http.StatusUnauthorized, a.get(t, "/api/v1/me").StatusCode)
}
