package httpapi_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superloja/internal/http/handlers"
)

func TestErrorHandlerHidesInternals(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("dial tcp 10.0.0.7:5432: password=hunter2 rejected")
	})
	app.Get("/api/v1/boom", func(c *fiber.Ctx) error {
		return errors.New("sql: no rows in products_secret")
	})

	var resp *http.Response
	entries := captureLogs(t, func() {
		var err error
		resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
		require.NoError(t, err)
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Algo deu errado")
	assert.NotContains(t, body, "hunter2")
	_, logged := findLog(entries, "server.error")
	assert.True(t, logged, "server errors must still be logged")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	assert.NotContains(t, readBody(t, resp), "products_secret")
}

func TestUnknownRoutes(t *testing.T) {
	a := newTestApp(t)

	api := a.get(t, "/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, api.StatusCode)
	assert.Contains(t, api.Header.Get("Content-Type"), "application/json")

	page := a.get(t, "/nada-aqui")
	assert.Equal(t, http.StatusNotFound, page.StatusCode)
	assert.Contains(t, readBody(t, page), "Página não encontrada")
}
