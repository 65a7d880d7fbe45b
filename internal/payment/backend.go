package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BackendClient talks to the payment backend that fronts the processor
// account: it serves the publishable key and creates payment intents. It owns
// no retry logic; a failed call aborts the checkout attempt.
type BackendClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewBackendClient creates a payment backend client
func NewBackendClient(baseURL string, timeout time.Duration) *BackendClient {
	return &BackendClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  util.GetLogger(),
	}
}

// ProcessorConfig is the client-side processor configuration served by the
// backend.
type ProcessorConfig struct {
	PublishableKey string `json:"publishableKey"`
}

type backendEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type createIntentRequest struct {
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
}

type createIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// GetConfig fetches the processor's publishable key
func (b *BackendClient) GetConfig(ctx context.Context) (*ProcessorConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/config", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build config request: %w", err)
	}

	var cfg ProcessorConfig
	if err := b.do(req, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CreatePaymentIntent asks the backend to create a payment intent for the
// given amount and returns its opaque client secret. The amount is the exact
// total computed by the cart; no recomputation happens here.
func (b *BackendClient) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, description string) (string, error) {
	start := time.Now()
	defer func() {
		util.PaymentIntentLatency.Observe(time.Since(start).Seconds())
	}()

	payload, err := json.Marshal(createIntentRequest{
		Amount:      json.Number(amount.String()),
		Description: description,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal intent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.baseURL+"/create-payment-intent", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp createIntentResponse
	if err := b.do(req, &resp); err != nil {
		return "", err
	}
	if resp.ClientSecret == "" {
		return "", fmt.Errorf("payment backend returned no client secret")
	}

	b.logger.Info("Payment intent created", zap.String("amount", amount.String()))
	return resp.ClientSecret, nil
}

// do executes the request and decodes the backend's {data: ...} envelope.
// Non-success responses yield an error with the message extracted from the
// body when present, else a generic status-based message.
func (b *BackendClient) do(req *http.Request, out interface{}) error {
	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("payment backend request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read payment backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s", extractErrorMessage(body, resp.StatusCode))
	}

	var env backendEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to decode payment backend envelope: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode payment backend payload: %w", err)
	}
	return nil
}

// extractErrorMessage pulls a human-readable message out of an error body:
// "message" first, then "error", then the raw body, then the status code.
func extractErrorMessage(body []byte, status int) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	if len(body) > 0 {
		return string(body)
	}
	return fmt.Sprintf("request failed (%d)", status)
}
