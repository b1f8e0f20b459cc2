package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipix/backend/internal/apperror"
	"github.com/clipix/backend/internal/models"
	"github.com/clipix/backend/internal/store"
)

func newGateApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*apperror.Error); ok {
				return c.Status(e.Status).JSON(fiber.Map{"success": false, "message": e.Message})
			}
			return fiber.DefaultErrorHandler(c, err)
		},
	})
}

func gateApp(st *store.Store, userID string) *fiber.App {
	app := newGateApp()
	app.Get("/premium",
		func(c *fiber.Ctx) error {
			c.Locals("userID", userID)
			return c.Next()
		},
		RequireActiveSubscription(st),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"success": true})
		})
	return app
}

func TestRequireActiveSubscriptionWithoutSubscription(t *testing.T) {
	st := store.NewMemory()
	user := &models.User{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, st.Users.Create(context.Background(), user))

	app := gateApp(st, user.ID)
	resp, err := app.Test(httptest.NewRequest("GET", "/premium", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireActiveSubscriptionAllowsLive(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	user := &models.User{Name: "Ana", Email: "ana@example.com", PlanType: models.PlanPremium}
	require.NoError(t, st.Users.Create(ctx, user))

	expires := time.Now().Add(24 * time.Hour)
	require.NoError(t, st.Subscriptions.Create(ctx, &models.Subscription{
		UserID:    user.ID,
		PlanType:  models.PlanPremium,
		Status:    models.SubscriptionActive,
		ExpiresAt: &expires,
	}))

	app := gateApp(st, user.ID)
	resp, err := app.Test(httptest.NewRequest("GET", "/premium", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireActiveSubscriptionExpiresOnRead(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	user := &models.User{Name: "Ana", Email: "ana@example.com", PlanType: models.PlanPremium}
	require.NoError(t, st.Users.Create(ctx, user))

	expires := time.Now().Add(-1 * time.Hour)
	sub := &models.Subscription{
		UserID:    user.ID,
		PlanType:  models.PlanPremium,
		Status:    models.SubscriptionActive,
		ExpiresAt: &expires,
	}
	require.NoError(t, st.Subscriptions.Create(ctx, sub))

	app := gateApp(st, user.ID)
	resp, err := app.Test(httptest.NewRequest("GET", "/premium", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// The stale row is closed and the owner demoted within the request.
	_, err = st.Subscriptions.ActiveByUser(ctx, user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	updated, err := st.Users.ByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, updated.PlanType)
}

func TestRequirePremiumPlanRejectsFree(t *testing.T) {
	st := store.NewMemory()
	user := &models.User{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, st.Users.Create(context.Background(), user))

	app := newGateApp()
	app.Get("/premium",
		func(c *fiber.Ctx) error {
			c.Locals("userID", user.ID)
			return c.Next()
		},
		RequirePremiumPlan(st),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"success": true})
		})

	resp, err := app.Test(httptest.NewRequest("GET", "/premium", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
