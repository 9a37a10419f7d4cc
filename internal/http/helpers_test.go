package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"superloja/internal/cache"
	"superloja/internal/config"
	httpapi "superloja/internal/http"
	"superloja/internal/http/handlers"
	applog "superloja/internal/log"
	"superloja/internal/repos"
	"superloja/internal/storage"
)

type testApp struct {
	app  *fiber.App
	deps *handlers.Deps
	db   *sqlx.DB
}

func roomyLimits() httpapi.Limits {
	r := httpapi.Rate{Max: 1000, Window: time.Minute}
	return httpapi.Limits{Global: r, Login: r, Search: r, Availability: r, Bids: r, Chat: r, Analytics: r}
}

// newTestApp builds the real router over an in-memory database. tweak adjusts the
// limits before the app is assembled.
func newTestApp(t *testing.T, tweak ...func(*httpapi.Limits)) *testApp {
	t.Helper()
	cfg := config.Testing()
	cfg.MediaDir = t.TempDir()
	db, err := repos.OpenDB(cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	media, err := storage.New(cfg.MediaDir, "/media")
	require.NoError(t, err)

	limits := roomyLimits()
	for _, f := range tweak {
		f(&limits)
	}
	app, deps := httpapi.New(httpapi.Options{
		Config: cfg,
		DB:     db,
		Media:  media,
		Cache:  cache.NewMemory(time.Minute),
		Limits: limits,
	})
	return &testApp{app: app, deps: deps, db: db}
}

func (a *testApp) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (a *testApp) get(t *testing.T, path string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return a.do(t, req)
}

// csrfToken fetches the login page and returns the token the csrf middleware issued.
func (a *testApp) csrfToken(t *testing.T) string {
	t.Helper()
	tok := cookieValue(a.get(t, "/login"), handlers.CSRFCookie)
	require.NotEmpty(t, tok, "csrf token missing")
	return tok
}

// postForm sends a url-encoded form carrying the csrf token.
func (a *testApp) postForm(t *testing.T, path, csrfTok, form string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	body := "csrf=" + csrfTok
	if form != "" {
		body += "&" + form
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	req.AddCookie(&http.Cookie{Name: handlers.CSRFCookie, Value: csrfTok})
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return a.do(t, req)
}

// sendJSON sends v as JSON with the csrf header.
func (a *testApp) sendJSON(t *testing.T, method, path, csrfTok string, v any, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	if csrfTok != "" {
		req.Header.Set(handlers.CSRFHeader, csrfTok)
		req.AddCookie(&http.Cookie{Name: handlers.CSRFCookie, Value: csrfTok})
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return a.do(t, req)
}

// session binds sid to userID and returns the cookie for it.
func (a *testApp) session(t *testing.T, sid, userID string) *http.Cookie {
	t.Helper()
	require.NoError(t, repos.NewUserRepo(a.db).BindSession(t.Context(), sid, userID))
	return &http.Cookie{Name: "sid", Value: sid}
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

type logEntry struct {
	Level  string         `json:"level"`
	Kind   string         `json:"kind"`
	Action string         `json:"action"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

// captureLogs collects the JSON log lines written while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf lockedBuf
	restore := applog.SetOutput(&buf)
	fn()
	restore()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
