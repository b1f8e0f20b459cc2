package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipix/backend/internal/apperror"
	"github.com/clipix/backend/internal/config"
	"github.com/clipix/backend/internal/models"
	"github.com/clipix/backend/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTAccessSecret:  "test-access-secret",
		JWTRefreshSecret: "test-refresh-secret",
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  7 * 24 * time.Hour,
	}
}

func testApp(st *store.Store, cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*apperror.Error); ok {
				return c.Status(e.Status).JSON(fiber.Map{"success": false, "message": e.Message})
			}
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"success": false, "message": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false, "message": "Erro interno do servidor",
			})
		},
	})
	h := NewAuthHandler(st, cfg)
	app.Post("/api/auth/register", h.Register)
	app.Post("/api/auth/login", h.Login)
	app.Post("/api/auth/logout", h.Logout)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestRegisterSetsCookies(t *testing.T) {
	st := store.NewMemory()
	app := testApp(st, testConfig())

	resp, body := postJSON(t, app, "/api/auth/register", map[string]string{
		"name":     "Ana",
		"email":    "ana@example.com",
		"password": "supersecret",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	var names []string
	for _, c := range resp.Cookies() {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "accessToken")
	assert.Contains(t, names, "refreshToken")

	// The password hash never leaves the server.
	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	_, leaked := user["passwordHash"]
	assert.False(t, leaked)
}

func TestRegisterValidation(t *testing.T) {
	app := testApp(store.NewMemory(), testConfig())

	resp, body := postJSON(t, app, "/api/auth/register", map[string]string{
		"name":     "Ana",
		"email":    "ana@example.com",
		"password": "short",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Senha deve ter no mínimo 8 caracteres", body["message"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	st := store.NewMemory()
	app := testApp(st, testConfig())

	payload := map[string]string{"name": "Ana", "email": "ana@example.com", "password": "supersecret"}
	resp, _ := postJSON(t, app, "/api/auth/register", payload)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := postJSON(t, app, "/api/auth/register", payload)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email já cadastrado", body["message"])
}

func TestRegisterBlockedEmail(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.BlockedEmails.Create(context.Background(), &models.BlockedEmail{
		Email:  "banned@example.com",
		Reason: "account_deleted",
	}))
	app := testApp(st, testConfig())

	resp, body := postJSON(t, app, "/api/auth/register", map[string]string{
		"name":     "Ana",
		"email":    "banned@example.com",
		"password": "supersecret",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Este email não pode ser utilizado para criar uma nova conta", body["message"])
}

func TestLoginWrongCredentialsIndistinguishable(t *testing.T) {
	st := store.NewMemory()
	hash, _ := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, st.Users.Create(context.Background(), &models.User{
		Name:         "Ana",
		Email:        "ana@example.com",
		PasswordHash: string(hash),
	}))
	app := testApp(st, testConfig())

	// Wrong password for an existing account.
	resp1, body1 := postJSON(t, app, "/api/auth/login", map[string]string{
		"email": "ana@example.com", "password": "wrongpassword",
	})
	// Account that does not exist at all.
	resp2, body2 := postJSON(t, app, "/api/auth/login", map[string]string{
		"email": "ghost@example.com", "password": "wrongpassword",
	})

	assert.Equal(t, fiber.StatusUnauthorized, resp1.StatusCode)
	assert.Equal(t, resp1.StatusCode, resp2.StatusCode)
	assert.Equal(t, body1["message"], body2["message"])
	assert.Equal(t, "Email ou senha inválidos", body1["message"])
}

func TestLoginSuccessRecordsLastLogin(t *testing.T) {
	st := store.NewMemory()
	hash, _ := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	user := &models.User{
		Name:         "Ana",
		Email:        "ana@example.com",
		PasswordHash: string(hash),
	}
	require.NoError(t, st.Users.Create(context.Background(), user))
	app := testApp(st, testConfig())

	resp, body := postJSON(t, app, "/api/auth/login", map[string]string{
		"email": "ana@example.com", "password": "supersecret",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	updated, err := st.Users.ByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotNil(t, updated.LastLogin)
}

func TestLogoutClearsCookies(t *testing.T) {
	app := testApp(store.NewMemory(), testConfig())

	resp, body := postJSON(t, app, "/api/auth/logout", map[string]string{})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logout realizado com sucesso", body["message"])

	for _, c := range resp.Cookies() {
		assert.Empty(t, c.Value, "cookie %s should be cleared", c.Name)
	}
}
