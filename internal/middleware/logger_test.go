package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipix/backend/internal/apperror"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestLoggerRecordsStatus(t *testing.T) {
	buf := captureLog(t)

	app := fiber.New()
	app.Use(Logger())
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Contains(t, buf.String(), `"status":204`)
	assert.Contains(t, buf.String(), `"path":"/ok"`)
}

func TestLoggerRecordsErrorStatus(t *testing.T) {
	buf := captureLog(t)

	app := fiber.New()
	app.Use(Logger())
	app.Get("/denied", func(c *fiber.Ctx) error {
		return apperror.New(fiber.StatusForbidden, "Acesso negado")
	})
	app.Get("/broken", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadGateway, "upstream")
	})

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/denied", nil))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"status":403`)

	buf.Reset()
	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/broken", nil))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"status":502`)
}
