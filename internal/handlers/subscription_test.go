package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipix/backend/internal/config"
	"github.com/clipix/backend/internal/models"
	"github.com/clipix/backend/internal/openpix"
	"github.com/clipix/backend/internal/services"
	"github.com/clipix/backend/internal/store"
)

func subscriptionApp(st *store.Store, userID string) *fiber.App {
	app := testApp(st, testConfig())
	payments := services.NewPaymentService(st, &stubProvider{}, &config.Config{})
	h := NewSubscriptionHandler(st, payments)

	grp := app.Group("/api/subscriptions", func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return c.Next()
	})
	grp.Get("/", h.Current)
	grp.Get("/plans", h.Plans)
	grp.Post("/upgrade", h.Upgrade)
	grp.Post("/cancel", h.Cancel)
	grp.Get("/history", h.History)
	return app
}

// stubProvider satisfies the payment service without touching the network.
type stubProvider struct{}

func (stubProvider) CreateCharge(ctx context.Context, req *openpix.ChargeRequest) (*openpix.ChargeResponse, error) {
	return &openpix.ChargeResponse{}, nil
}

func (stubProvider) CreateSubscription(ctx context.Context, req *openpix.SubscriptionRequest) (*openpix.SubscriptionResponse, error) {
	return &openpix.SubscriptionResponse{}, nil
}

func (stubProvider) CancelSubscription(ctx context.Context, globalID string) error {
	return nil
}

func TestPlansCatalog(t *testing.T) {
	st := store.NewMemory()
	app := subscriptionApp(st, "any")

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/plans", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUpgradeAlreadyPremium(t *testing.T) {
	st := store.NewMemory()
	user := &models.User{Name: "Ana", Email: "ana@example.com", PlanType: models.PlanPremium}
	require.NoError(t, st.Users.Create(context.Background(), user))
	app := subscriptionApp(st, user.ID)

	resp, body := postJSON(t, app, "/api/subscriptions/upgrade", map[string]string{
		"planType":     "PREMIUM",
		"billingCycle": "monthly",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Você já possui um plano Premium", body["message"])
}

func TestUpgradeReplacesActiveSubscription(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	user := &models.User{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, st.Users.Create(ctx, user))

	stale := time.Now().Add(24 * time.Hour)
	require.NoError(t, st.Subscriptions.Create(ctx, &models.Subscription{
		UserID:    user.ID,
		PlanType:  models.PlanPremium,
		Status:    models.SubscriptionActive,
		ExpiresAt: &stale,
	}))

	app := subscriptionApp(st, user.ID)
	resp, _ := postJSON(t, app, "/api/subscriptions/upgrade", map[string]string{
		"planType":     "PREMIUM",
		"billingCycle": "yearly",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	sub, err := st.Subscriptions.ActiveByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().AddDate(1, 0, 0), *sub.ExpiresAt, time.Minute)

	subs, err := st.Subscriptions.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)

	promoted, err := st.Users.ByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanPremium, promoted.PlanType)
}

func TestUpgradeInvalidPeriod(t *testing.T) {
	st := store.NewMemory()
	user := &models.User{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, st.Users.Create(context.Background(), user))
	app := subscriptionApp(st, user.ID)

	resp, body := postJSON(t, app, "/api/subscriptions/upgrade", map[string]string{
		"planType":     "PREMIUM",
		"billingCycle": "weekly",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Período de cobrança inválido", body["message"])
}

func TestCurrentWithoutSubscription(t *testing.T) {
	st := store.NewMemory()
	user := &models.User{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, st.Users.Create(context.Background(), user))
	app := subscriptionApp(st, user.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
