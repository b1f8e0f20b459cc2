package openpix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCharge(t *testing.T) {
	var gotAuth string
	var gotReq ChargeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/charge", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(ChargeResponse{
			Charge: Charge{
				Identifier:    "charge-1",
				CorrelationID: gotReq.CorrelationID,
				Status:        "ACTIVE",
				Value:         gotReq.Value,
			},
			BrCode: "00020126...",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "app-id-123")
	resp, err := client.CreateCharge(context.Background(), &ChargeRequest{
		Value:         2990,
		CorrelationID: "corr-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "app-id-123", gotAuth)
	assert.Equal(t, 86400, gotReq.ExpiresIn)
	assert.Equal(t, "charge-1", resp.Charge.Identifier)
	assert.Equal(t, "00020126...", resp.BrCode)
}

func TestCreateChargeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid taxID"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "app-id-123")
	_, err := client.CreateCharge(context.Background(), &ChargeRequest{Value: 2990})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "falha ao criar cobrança")
	assert.Contains(t, err.Error(), "invalid taxID")
}

func TestCreateSubscriptionDefaultsChargeDay(t *testing.T) {
	var gotReq SubscriptionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/subscriptions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		var resp SubscriptionResponse
		resp.Subscription.GlobalID = "sub-global-1"
		resp.Subscription.Value = gotReq.Value
		resp.Subscription.DayGenerateCharge = gotReq.DayGenerateCharge
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "app-id-123")
	resp, err := client.CreateSubscription(context.Background(), &SubscriptionRequest{
		Value:    2990,
		Customer: Customer{Name: "Ana", TaxID: "12345678901"},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, gotReq.DayGenerateCharge)
	assert.Equal(t, "sub-global-1", resp.Subscription.GlobalID)
}

func TestCancelSubscription(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "app-id-123")
	require.NoError(t, client.CancelSubscription(context.Background(), "sub-global-1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/subscriptions/sub-global-1", gotPath)
}

func TestWebhookPayloadValid(t *testing.T) {
	assert.False(t, (&WebhookPayload{}).Valid())
	assert.False(t, (&WebhookPayload{Event: EventChargeCompleted}).Valid())
	assert.True(t, (&WebhookPayload{
		Event:  EventChargeCompleted,
		Charge: &WebhookCharge{CorrelationID: "corr-1"},
	}).Valid())
	assert.False(t, (&WebhookPayload{Event: EventSubscriptionCreated}).Valid())
	assert.True(t, (&WebhookPayload{
		Event:        EventSubscriptionCreated,
		Subscription: &WebhookSubscription{GlobalID: "sub-1"},
	}).Valid())
	// Unknown events carry no required object.
	assert.True(t, (&WebhookPayload{Event: "OPENPIX:MOVEMENT_CONFIRMED"}).Valid())
}
