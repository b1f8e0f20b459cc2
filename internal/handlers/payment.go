package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/clipix/backend/internal/middleware"
	"github.com/clipix/backend/internal/models"
	"github.com/clipix/backend/internal/openpix"
	"github.com/clipix/backend/internal/services"
	"github.com/clipix/backend/internal/store"
	"github.com/clipix/backend/internal/validate"
)

// PaymentHandler serves PIX charge creation, payment history and the
// provider webhook.
type PaymentHandler struct {
	payments *services.PaymentService
	store    *store.Store
}

func NewPaymentHandler(payments *services.PaymentService, st *store.Store) *PaymentHandler {
	return &PaymentHandler{payments: payments, store: st}
}

// customerData identifies the payer for PIX charges.
type customerData struct {
	Name  string `json:"name" validate:"omitempty,min=2" message:"Nome deve ter no mínimo 2 caracteres"`
	TaxID string `json:"taxID" validate:"required,cpfcnpj" message:"CPF ou CNPJ inválido"`
	Email string `json:"email" validate:"omitempty,email" message:"Email inválido"`
	Phone string `json:"phone" validate:"omitempty,brphone" message:"Telefone deve estar no formato 55XXXXXXXXXXX"`
}

func (d customerData) toCustomer() openpix.Customer {
	return openpix.Customer{
		Name:  d.Name,
		TaxID: d.TaxID,
		Email: d.Email,
		Phone: d.Phone,
	}
}

type createPaymentRequest struct {
	PlanType      string       `json:"planType" validate:"required,oneof=PREMIUM" message:"Tipo de plano inválido"`
	BillingPeriod string       `json:"billingPeriod" validate:"required,oneof=monthly yearly" message:"Período de cobrança inválido"`
	CustomerData  customerData `json:"customerData"`
}

// Create issues a one-off PIX charge for a PREMIUM plan.
func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	var req createPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
	}
	if err := validate.Struct(&req); err != nil {
		return err
	}

	customer := req.CustomerData.toCustomer()
	payment, err := h.payments.CreatePayment(c.Context(), middleware.UserID(c),
		models.BillingPeriod(req.BillingPeriod), &customer)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Cobrança PIX criada com sucesso",
		"payment": payment,
		"qrCode": fiber.Map{
			"brCode":         payment.BrCode,
			"qrCodeImage":    payment.QRCodeImage,
			"paymentLinkUrl": payment.PaymentLinkURL,
		},
	})
}

type createSubscriptionRequest struct {
	CustomerData      customerData `json:"customerData"`
	DayGenerateCharge int          `json:"dayGenerateCharge" validate:"omitempty,min=1,max=28" message:"Dia de cobrança deve estar entre 1 e 28"`
}

// CreateSubscription opens a recurring monthly PIX subscription.
func (h *PaymentHandler) CreateSubscription(c *fiber.Ctx) error {
	var req createSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
	}
	if err := validate.Struct(&req); err != nil {
		return err
	}

	sub, err := h.payments.CreateRecurringSubscription(c.Context(), middleware.UserID(c),
		req.CustomerData.toCustomer(), req.DayGenerateCharge)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":      true,
		"message":      "Assinatura criada com sucesso",
		"subscription": sub,
	})
}

// Webhook receives OpenPix callbacks. Malformed payloads with a known
// event are acknowledged so the provider stops retrying them.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	var payload openpix.WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Evento de webhook inválido")
	}
	if payload.Event == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Evento de webhook inválido")
	}
	if !payload.Valid() {
		log.Warn().Str("event", payload.Event).Msg("webhook payload missing required object")
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Webhook recebido",
		})
	}

	if err := h.payments.HandleWebhook(c.Context(), &payload); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Pagamento processado com sucesso",
	})
}

// List returns the user's payment history, newest first.
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	payments, err := h.store.Payments.ListByUser(c.Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"payments": payments,
	})
}

// Get returns one payment with its PIX artifacts, to re-display the QR code.
func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	payment, err := h.store.Payments.ByID(c.Context(), middleware.UserID(c), c.Params("id"))
	if err == store.ErrNotFound {
		return fiber.NewError(fiber.StatusNotFound, "Pagamento não encontrado")
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"payment": payment,
	})
}

// CancelSubscription cancels the user's recurring subscription.
func (h *PaymentHandler) CancelSubscription(c *fiber.Ctx) error {
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

// ActiveSubscription returns the user's active subscription.
func (h *PaymentHandler) ActiveSubscription(c *fiber.Ctx) error {
	sub, err := h.payments.ActiveSubscription(c.Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"subscription": sub,
	})
}

// UpcomingInvoices predicts the next charges of a recurring subscription.
func (h *PaymentHandler) UpcomingInvoices(c *fiber.Ctx) error {
	invoices, err := h.payments.UpcomingInvoices(c.Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"invoices": invoices,
	})
}
