package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/clipix/backend/internal/middleware"
	"github.com/clipix/backend/internal/models"
	"github.com/clipix/backend/internal/services"
	"github.com/clipix/backend/internal/store"
	"github.com/clipix/backend/internal/validate"
)

// SubscriptionHandler serves the plan catalog and subscription lifecycle.
type SubscriptionHandler struct {
	store    *store.Store
	payments *services.PaymentService
}

func NewSubscriptionHandler(st *store.Store, payments *services.PaymentService) *SubscriptionHandler {
	return &SubscriptionHandler{store: st, payments: payments}
}

// Plans returns the static plan catalog.
func (h *SubscriptionHandler) Plans(c *fiber.Ctx) error {
	monthly, _ := services.PlanPrice(models.BillingMonthly)
	yearly, _ := services.PlanPrice(models.BillingYearly)
	return c.JSON(fiber.Map{
		"success": true,
		"plans": []fiber.Map{
			{
				"id":       "free",
				"name":     "Gratuito",
				"planType": models.PlanFree,
				"price":    0.0,
				"features": []string{
					"5 downloads no total",
					"Qualidade padrão",
				},
			},
			{
				"id":            "premium-monthly",
				"name":          "Premium Mensal",
				"planType":      models.PlanPremium,
				"billingPeriod": models.BillingMonthly,
				"price":         monthly,
				"features": []string{
					"Downloads ilimitados",
					"Qualidade 1080p",
					"Sem marca d'água",
				},
			},
			{
				"id":            "premium-yearly",
				"name":          "Premium Anual",
				"planType":      models.PlanPremium,
				"billingPeriod": models.BillingYearly,
				"price":         yearly,
				"features": []string{
					"Downloads ilimitados",
					"Qualidade 1080p",
					"Sem marca d'água",
					"2 meses grátis",
				},
			},
		},
	})
}

// Current returns the user's plan and active subscription, if any.
func (h *SubscriptionHandler) Current(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	user, err := h.store.Users.ByID(c.Context(), userID)
	if err != nil {
		return err
	}

	resp := fiber.Map{
		"success":  true,
		"planType": user.PlanType,
	}
	sub, err := h.store.Subscriptions.ActiveByUser(c.Context(), userID)
	switch err {
	case nil:
		resp["subscription"] = sub
	case store.ErrNotFound:
		resp["subscription"] = nil
	default:
		return err
	}
	return c.JSON(resp)
}

type upgradeRequest struct {
	PlanType     string `json:"planType" validate:"required,oneof=PREMIUM" message:"Tipo de plano inválido"`
	BillingCycle string `json:"billingCycle" validate:"required,oneof=monthly yearly" message:"Período de cobrança inválido"`
}

// Upgrade promotes the user to PREMIUM for one billing cycle, replacing any
// previous active subscription.
func (h *SubscriptionHandler) Upgrade(c *fiber.Ctx) error {
	var req upgradeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
	}
	if err := validate.Struct(&req); err != nil {
		return err
	}
	period := models.BillingPeriod(req.BillingCycle)

	userID := middleware.UserID(c)
	user, err := h.store.Users.ByID(c.Context(), userID)
	if err != nil {
		return err
	}
	if user.PlanType == models.PlanPremium {
		return fiber.NewError(fiber.StatusBadRequest, "Você já possui um plano Premium")
	}

	prev, err := h.store.Subscriptions.ActiveByUser(c.Context(), userID)
	if err == nil {
		prev.Status = models.SubscriptionCancelled
		prev.AutoRenew = false
		if err := h.store.Subscriptions.Update(c.Context(), prev); err != nil {
			return err
		}
	} else if err != store.ErrNotFound {
		return err
	}

	expires := time.Now().AddDate(0, 1, 0)
	if period == models.BillingYearly {
		expires = time.Now().AddDate(1, 0, 0)
	}
	sub := &models.Subscription{
		UserID:    userID,
		PlanType:  models.PlanPremium,
		Status:    models.SubscriptionActive,
		ExpiresAt: &expires,
	}
	if err := h.store.Subscriptions.Create(c.Context(), sub); err != nil {
		return err
	}
	if err := h.store.Users.UpdatePlan(c.Context(), userID, models.PlanPremium); err != nil {
		return err
	}

	log.Info().Str("userId", userID).Str("billingPeriod", string(period)).Msg("plan upgraded")
	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "Plano atualizado com sucesso",
		"subscription": sub,
	})
}

// Cancel cancels the active subscription and stops future charges.
func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	sub, err := h.payments.CancelSubscription(c.Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "Assinatura cancelada com sucesso",
		"subscription": sub,
	})
}

// History lists all of the user's subscriptions, newest first.
func (h *SubscriptionHandler) History(c *fiber.Ctx) error {
	subs, err := h.store.Subscriptions.ListByUser(c.Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	if subs == nil {
		subs = []models.Subscription{}
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"subscriptions": subs,
	})
}
