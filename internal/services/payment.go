package services

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clipix/backend/internal/apperror"
	"github.com/clipix/backend/internal/config"
	"github.com/clipix/backend/internal/models"
	"github.com/clipix/backend/internal/openpix"
	"github.com/clipix/backend/internal/store"
)

// Plan prices in BRL.
var planPrices = map[models.BillingPeriod]float64{
	models.BillingMonthly: 29.90,
	models.BillingYearly:  299.00,
}

// PixProvider is the subset of the OpenPix client the payment flow needs.
type PixProvider interface {
	CreateCharge(ctx context.Context, req *openpix.ChargeRequest) (*openpix.ChargeResponse, error)
	CreateSubscription(ctx context.Context, req *openpix.SubscriptionRequest) (*openpix.SubscriptionResponse, error)
	CancelSubscription(ctx context.Context, globalID string) error
}

// PaymentService owns PIX charge creation, webhook reconciliation and the
// subscription lifecycle.
type PaymentService struct {
	store    *store.Store
	provider PixProvider
	cfg      *config.Config
}

// NewPaymentService wires the payment flow.
func NewPaymentService(st *store.Store, provider PixProvider, cfg *config.Config) *PaymentService {
	return &PaymentService{store: st, provider: provider, cfg: cfg}
}

// PlanPrice returns the BRL price for a billing period.
func PlanPrice(period models.BillingPeriod) (float64, bool) {
	price, ok := planPrices[period]
	return price, ok
}

func centavos(price float64) int {
	return int(math.Round(price * 100))
}

func correlationID(userID string, period models.BillingPeriod) string {
	return fmt.Sprintf("%s-%s-%s-%d", userID, models.PlanPremium, period, time.Now().UnixMilli())
}

func periodComment(period models.BillingPeriod) string {
	if period == models.BillingYearly {
		return "Assinatura PREMIUM - Anual"
	}
	return "Assinatura PREMIUM - Mensal"
}

// addCycle advances an instant by one billing cycle.
func addCycle(t time.Time, period models.BillingPeriod) time.Time {
	if period == models.BillingYearly {
		return t.AddDate(1, 0, 0)
	}
	return t.AddDate(0, 1, 0)
}

// CreatePayment creates a one-off PIX charge for a PREMIUM plan and records
// it as a pending payment.
func (s *PaymentService) CreatePayment(ctx context.Context, userID string, period models.BillingPeriod, customer *openpix.Customer) (*models.Payment, error) {
	price, ok := planPrices[period]
	if !ok {
		return nil, apperror.New(http.StatusBadRequest, "Período de cobrança inválido")
	}

	user, err := s.store.Users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		customer = &openpix.Customer{Name: user.Name, Email: user.Email}
	}
	if customer.Name == "" {
		customer.Name = user.Name
	}
	if customer.Email == "" {
		customer.Email = user.Email
	}

	correlation := correlationID(userID, period)
	resp, err := s.provider.CreateCharge(ctx, &openpix.ChargeRequest{
		Value:         centavos(price),
		CorrelationID: correlation,
		Customer:      customer,
		Comment:       periodComment(period),
		ExpiresIn:     86400,
	})
	if err != nil {
		log.Error().Str("userId", userID).Err(err).Msg("pix charge creation failed")
		return nil, apperror.New(http.StatusBadGateway, "Falha ao criar cobrança PIX. Tente novamente.")
	}

	expiresAt := resp.Charge.ExpiresDate
	payment := &models.Payment{
		UserID:          userID,
		Amount:          price,
		Currency:        "BRL",
		Status:          models.PaymentActive,
		PaymentMethod:   "PIX",
		PaymentType:     models.PaymentTypeCharge,
		BillingPeriod:   period,
		CorrelationID:   correlation,
		OpenPixChargeID: resp.Charge.Identifier,
		OpenPixGlobalID: resp.Charge.GlobalID,
		TransactionID:   resp.Charge.TransactionID,
		BrCode:          resp.BrCode,
		QRCodeImage:     resp.Charge.QRCodeImage,
		PaymentLinkURL:  resp.Charge.PaymentLinkURL,
	}
	if payment.BrCode == "" {
		payment.BrCode = resp.Charge.BrCode
	}
	if !expiresAt.IsZero() {
		payment.ExpiresAt = &expiresAt
	}
	if err := s.store.Payments.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// CreateRecurringSubscription registers a recurring monthly charge schedule
// with the provider and opens a local subscription. Entitlement is granted
// up front when GRANT_PREMIUM_ON_SUBSCRIBE is on, before the first charge
// settles.
func (s *PaymentService) CreateRecurringSubscription(ctx context.Context, userID string, customer openpix.Customer, dayGenerateCharge int) (*models.Subscription, error) {
	// Only a subscription already registered with the provider blocks a new
	// one. An ACTIVE row from a one-off charge is superseded, keeping the
	// one-ACTIVE-per-user invariant intact.
	if existing, err := s.store.Subscriptions.ActiveByUser(ctx, userID); err == nil {
		if existing.OpenPixSubscriptionID != "" {
			return nil, apperror.New(http.StatusBadRequest, "Você já possui uma assinatura ativa")
		}
		existing.Status = models.SubscriptionCancelled
		existing.AutoRenew = false
		if err := s.store.Subscriptions.Update(ctx, existing); err != nil {
			return nil, err
		}
	} else if err != store.ErrNotFound {
		return nil, err
	}

	user, err := s.store.Users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if customer.Name == "" {
		customer.Name = user.Name
	}
	if customer.Email == "" {
		customer.Email = user.Email
	}
	if dayGenerateCharge <= 0 || dayGenerateCharge > 28 {
		dayGenerateCharge = 5
	}

	resp, err := s.provider.CreateSubscription(ctx, &openpix.SubscriptionRequest{
		Value:             centavos(planPrices[models.BillingMonthly]),
		Customer:          customer,
		DayGenerateCharge: dayGenerateCharge,
	})
	if err != nil {
		log.Error().Str("userId", userID).Err(err).Msg("pix subscription creation failed")
		return nil, apperror.New(http.StatusBadGateway, "Falha ao criar assinatura PIX. Tente novamente.")
	}

	expires := addCycle(time.Now(), models.BillingMonthly)
	sub := &models.Subscription{
		UserID:                userID,
		PlanType:              models.PlanPremium,
		Status:                models.SubscriptionActive,
		ExpiresAt:             &expires,
		AutoRenew:             true,
		OpenPixSubscriptionID: resp.Subscription.GlobalID,
		DayGenerateCharge:     &dayGenerateCharge,
	}
	if err := s.store.Subscriptions.Create(ctx, sub); err != nil {
		return nil, err
	}

	if s.cfg.GrantPremiumOnSubscribe {
		if err := s.store.Users.UpdatePlan(ctx, userID, models.PlanPremium); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// HandleWebhook reconciles a provider callback against local state. Unknown
// correlation ids and replays of already settled charges are acknowledged
// without side effects.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload *openpix.WebhookPayload) error {
	if payload.Event != openpix.EventChargeCompleted {
		log.Info().Str("event", payload.Event).Msg("ignoring webhook event")
		return nil
	}

	payment, err := s.store.Payments.ByCorrelationID(ctx, payload.Charge.CorrelationID)
	if err == store.ErrNotFound {
		log.Warn().Str("correlationId", payload.Charge.CorrelationID).
			Msg("webhook for unknown correlation id")
		return nil
	}
	if err != nil {
		return err
	}
	if payment.Status == models.PaymentCompleted {
		log.Info().Str("paymentId", payment.ID).Msg("webhook replay for settled payment")
		return nil
	}

	now := time.Now()
	payment.Status = models.PaymentCompleted
	payment.PaidAt = &now
	if payload.Charge.TransactionID != "" {
		payment.TransactionID = payload.Charge.TransactionID
	}

	period := payment.BillingPeriod
	if period == "" {
		// Legacy rows encode the period only inside the correlation id.
		period = models.BillingMonthly
		if strings.Contains(payment.CorrelationID, string(models.BillingYearly)) {
			period = models.BillingYearly
		}
	}

	sub, err := s.store.Subscriptions.ActiveByUser(ctx, payment.UserID)
	switch {
	case err == nil:
		base := now
		if sub.ExpiresAt != nil && sub.ExpiresAt.After(now) {
			base = *sub.ExpiresAt
		}
		expires := addCycle(base, period)
		sub.ExpiresAt = &expires
		if err := s.store.Subscriptions.Update(ctx, sub); err != nil {
			return err
		}
	case err == store.ErrNotFound:
		expires := addCycle(now, period)
		sub = &models.Subscription{
			UserID:    payment.UserID,
			PlanType:  models.PlanPremium,
			Status:    models.SubscriptionActive,
			ExpiresAt: &expires,
			AutoRenew: payment.PaymentType == models.PaymentTypeSubscription,
		}
		if err := s.store.Subscriptions.Create(ctx, sub); err != nil {
			return err
		}
	default:
		return err
	}

	payment.SubscriptionID = &sub.ID
	if err := s.store.Payments.Update(ctx, payment); err != nil {
		return err
	}
	if err := s.store.Users.UpdatePlan(ctx, payment.UserID, models.PlanPremium); err != nil {
		return err
	}

	log.Info().
		Str("paymentId", payment.ID).
		Str("userId", payment.UserID).
		Str("billingPeriod", string(period)).
		Msg("payment settled")
	return nil
}

// CancelSubscription cancels the user's active subscription. A provider
// cancellation failure is logged and does not block the local cancellation.
func (s *PaymentService) CancelSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.store.Subscriptions.ActiveByUser(ctx, userID)
	if err == store.ErrNotFound {
		return nil, apperror.New(http.StatusNotFound, "Assinatura ativa não encontrada")
	}
	if err != nil {
		return nil, err
	}

	if sub.OpenPixSubscriptionID != "" {
		if err := s.provider.CancelSubscription(ctx, sub.OpenPixSubscriptionID); err != nil {
			log.Error().Str("subscriptionId", sub.ID).Err(err).
				Msg("provider cancellation failed, cancelling locally anyway")
		}
	}

	sub.Status = models.SubscriptionCancelled
	sub.AutoRenew = false
	if err := s.store.Subscriptions.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ActiveSubscription returns the user's active subscription, or nil when
// there is none. Having no subscription is a normal state, not an error.
func (s *PaymentService) ActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.store.Subscriptions.ActiveByUser(ctx, userID)
	if err == store.ErrNotFound {
		return nil, nil
	}
	return sub, err
}

// Invoice is a predicted future charge for a recurring subscription.
type Invoice struct {
	DueDate time.Time `json:"dueDate"`
	Amount  float64   `json:"amount"`
	Status  string    `json:"status"`
}

// UpcomingInvoices predicts the next three charges of the user's recurring
// subscription from its charge day.
func (s *PaymentService) UpcomingInvoices(ctx context.Context, userID string) ([]Invoice, error) {
	sub, err := s.store.Subscriptions.ActiveByUser(ctx, userID)
	if err == store.ErrNotFound {
		return nil, apperror.New(http.StatusNotFound, "Assinatura ativa não encontrada")
	}
	if err != nil {
		return nil, err
	}

	day := 5
	if sub.DayGenerateCharge != nil && *sub.DayGenerateCharge > 0 {
		day = *sub.DayGenerateCharge
	}

	now := time.Now()
	next := time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 1, 0)
	}

	invoices := make([]Invoice, 0, 3)
	for i := 0; i < 3; i++ {
		invoices = append(invoices, Invoice{
			DueDate: next.AddDate(0, i, 0),
			Amount:  planPrices[models.BillingMonthly],
			Status:  "SCHEDULED",
		})
	}
	return invoices, nil
}

// CheckExpiredSubscriptions closes ACTIVE subscriptions past their expiry
// with auto-renew off and demotes their owners to the free plan. Returns
// the number of subscriptions expired.
func (s *PaymentService) CheckExpiredSubscriptions(ctx context.Context) (int, error) {
	subs, err := s.store.Subscriptions.ExpiredActive(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range subs {
		sub := subs[i]
		sub.Status = models.SubscriptionExpired
		if err := s.store.Subscriptions.Update(ctx, &sub); err != nil {
			log.Error().Str("subscriptionId", sub.ID).Err(err).Msg("failed to expire subscription")
			continue
		}
		if err := s.store.Users.UpdatePlan(ctx, sub.UserID, models.PlanFree); err != nil {
			log.Error().Str("userId", sub.UserID).Err(err).Msg("failed to demote user")
			continue
		}
		expired++
		log.Info().Str("subscriptionId", sub.ID).Str("userId", sub.UserID).
			Msg("subscription expired")
	}
	return expired, nil
}
