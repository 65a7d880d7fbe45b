package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/config", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"publishableKey":"pk_test_123"}}`))
	}))
	defer srv.Close()

	client := NewBackendClient(srv.URL, 5*time.Second)
	cfg, err := client.GetConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pk_test_123", cfg.PublishableKey)
}

func TestCreatePaymentIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/create-payment-intent", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 49.99, body["amount"])
		assert.Equal(t, "Order #A1", body["description"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"clientSecret":"pi_1_secret_xyz"}}`))
	}))
	defer srv.Close()

	client := NewBackendClient(srv.URL, 5*time.Second)
	secret, err := client.CreatePaymentIntent(context.Background(),
		decimal.RequireFromString("49.99"), "Order #A1")
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret_xyz", secret)
}

func TestCreatePaymentIntentMissingSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	client := NewBackendClient(srv.URL, 5*time.Second)
	_, err := client.CreatePaymentIntent(context.Background(), decimal.RequireFromString("1"), "x")
	assert.Error(t, err)
}

func TestBackendErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{"message field", http.StatusBadRequest, `{"message":"amount too small"}`, "amount too small"},
		{"error field", http.StatusUnprocessableEntity, `{"error":"invalid currency"}`, "invalid currency"},
		{"plain text body", http.StatusBadGateway, `upstream unavailable`, "upstream unavailable"},
		{"empty body", http.StatusInternalServerError, ``, "request failed (500)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewBackendClient(srv.URL, 5*time.Second)
			_, err := client.CreatePaymentIntent(context.Background(), decimal.RequireFromString("1"), "x")
			require.Error(t, err)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestBackendUnreachable(t *testing.T) {
	client := NewBackendClient("http://127.0.0.1:1", time.Second)
	_, err := client.CreatePaymentIntent(context.Background(), decimal.RequireFromString("1"), "x")
	assert.Error(t, err)
}
