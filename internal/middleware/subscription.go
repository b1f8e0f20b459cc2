package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/clipix/backend/internal/apperror"
	"github.com/clipix/backend/internal/models"
	"github.com/clipix/backend/internal/store"
)

// RequireActiveSubscription gates premium-only routes on a live subscription.
// An ACTIVE row past its expiry is flipped to EXPIRED and the owner demoted
// to FREE within the same request (lazy expiry, no background job needed for
// correctness).
func RequireActiveSubscription(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == "" {
			return apperror.New(fiber.StatusUnauthorized, "Usuário não autenticado")
		}

		sub, err := st.Subscriptions.ActiveByUser(c.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperror.New(fiber.StatusForbidden,
					"Assinatura ativa não encontrada. Faça upgrade para Premium.")
			}
			return err
		}

		if sub.ExpiresAt != nil && sub.ExpiresAt.Before(time.Now()) {
			sub.Status = models.SubscriptionExpired
			if err := st.Subscriptions.Update(c.Context(), sub); err != nil {
				return err
			}
			if err := st.Users.UpdatePlan(c.Context(), userID, models.PlanFree); err != nil {
				return err
			}
			log.Info().Str("userId", userID).Str("subscriptionId", sub.ID).
				Msg("subscription expired on read, user demoted to FREE")
			return apperror.New(fiber.StatusForbidden,
				"Sua assinatura expirou. Renove para continuar usando recursos Premium.")
		}

		return c.Next()
	}
}

// RequirePremiumPlan is the cheaper gate: it only checks the user's plan tag
// and never touches subscription rows.
func RequirePremiumPlan(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == "" {
			return apperror.New(fiber.StatusUnauthorized, "Usuário não autenticado")
		}

		user, err := st.Users.ByID(c.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperror.New(fiber.StatusNotFound, "Usuário não encontrado")
			}
			return err
		}

		if user.PlanType != models.PlanPremium {
			return apperror.New(fiber.StatusForbidden,
				"Este recurso está disponível apenas para usuários Premium")
		}

		return c.Next()
	}
}
