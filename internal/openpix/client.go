// Package openpix is a thin client for the OpenPix PIX payment API:
// one-off charges, recurring subscriptions and webhook payload types.
package openpix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Webhook event types delivered by OpenPix.
const (
	EventChargeCompleted     = "OPENPIX:CHARGE_COMPLETED"
	EventChargeExpired       = "OPENPIX:CHARGE_EXPIRED"
	EventSubscriptionCreated = "OPENPIX:SUBSCRIPTION_CREATED"
)

// Customer identifies the payer. TaxID is a CPF or CNPJ.
type Customer struct {
	Name  string `json:"name"`
	TaxID string `json:"taxID"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ChargeRequest creates a one-off PIX charge. Value is in centavos.
type ChargeRequest struct {
	Value         int       `json:"value"`
	CorrelationID string    `json:"correlationID"`
	Customer      *Customer `json:"customer,omitempty"`
	Comment       string    `json:"comment,omitempty"`
	ExpiresIn     int       `json:"expiresIn,omitempty"`
}

// Charge is the provider's view of a created charge.
type Charge struct {
	Identifier     string    `json:"identifier"`
	CorrelationID  string    `json:"correlationID"`
	TransactionID  string    `json:"transactionID"`
	GlobalID       string    `json:"globalID"`
	Status         string    `json:"status"`
	Value          int       `json:"value"`
	BrCode         string    `json:"brCode"`
	QRCodeImage    string    `json:"qrCodeImage"`
	PaymentLinkURL string    `json:"paymentLinkUrl"`
	ExpiresDate    time.Time `json:"expiresDate"`
}

// ChargeResponse wraps a created charge with its PIX copy-paste code.
type ChargeResponse struct {
	Charge        Charge `json:"charge"`
	CorrelationID string `json:"correlationID"`
	BrCode        string `json:"brCode"`
}

// SubscriptionRequest creates a recurring monthly charge schedule.
type SubscriptionRequest struct {
	Value             int      `json:"value"`
	Customer          Customer `json:"customer"`
	DayGenerateCharge int      `json:"dayGenerateCharge,omitempty"`
}

// SubscriptionResponse wraps a created recurring schedule.
type SubscriptionResponse struct {
	Subscription struct {
		GlobalID          string   `json:"globalID"`
		Value             int      `json:"value"`
		Customer          Customer `json:"customer"`
		DayGenerateCharge int      `json:"dayGenerateCharge"`
	} `json:"subscription"`
}

// WebhookCharge is the charge sub-object of a webhook delivery.
type WebhookCharge struct {
	Status        string     `json:"status"`
	CorrelationID string     `json:"correlationID"`
	TransactionID string     `json:"transactionID"`
	Value         int        `json:"value"`
	PaidAt        *time.Time `json:"paidAt"`
}

// WebhookSubscription is the subscription sub-object of a webhook delivery.
type WebhookSubscription struct {
	GlobalID string `json:"globalID"`
	Status   string `json:"status"`
}

// WebhookPayload is the body POSTed by OpenPix to the webhook endpoint.
type WebhookPayload struct {
	Event        string               `json:"event"`
	Charge       *WebhookCharge       `json:"charge,omitempty"`
	Subscription *WebhookSubscription `json:"subscription,omitempty"`
}

// Valid reports whether the payload has the sub-object its event requires.
func (p *WebhookPayload) Valid() bool {
	if p.Event == "" {
		return false
	}
	if p.Event == EventChargeCompleted && p.Charge == nil {
		return false
	}
	if p.Event == EventSubscriptionCreated && p.Subscription == nil {
		return false
	}
	return true
}

// Client calls the OpenPix REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	appID      string
}

// NewClient builds a client authenticating with the given app id.
func NewClient(baseURL, appID string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		appID:      appID,
	}
}

// CreateCharge creates a one-off PIX charge.
func (c *Client) CreateCharge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error) {
	if req.ExpiresIn == 0 {
		req.ExpiresIn = 86400
	}
	var resp ChargeResponse
	if err := c.post(ctx, "/charge", req, &resp); err != nil {
		return nil, fmt.Errorf("falha ao criar cobrança: %w", err)
	}
	return &resp, nil
}

// CreateSubscription creates a recurring monthly charge schedule.
func (c *Client) CreateSubscription(ctx context.Context, req *SubscriptionRequest) (*SubscriptionResponse, error) {
	if req.DayGenerateCharge == 0 {
		req.DayGenerateCharge = 5
	}
	var resp SubscriptionResponse
	if err := c.post(ctx, "/subscriptions", req, &resp); err != nil {
		return nil, fmt.Errorf("falha ao criar assinatura: %w", err)
	}
	return &resp, nil
}

// CancelSubscription cancels a recurring charge schedule.
func (c *Client) CancelSubscription(ctx context.Context, globalID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/subscriptions/"+globalID, nil)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("falha ao cancelar assinatura: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", c.appID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &apiErr) == nil {
			if apiErr.Error != "" {
				return fmt.Errorf("%s", apiErr.Error)
			}
			if apiErr.Message != "" {
				return fmt.Errorf("%s", apiErr.Message)
			}
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
