package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// Confirmation is the processor's terminal success report
type Confirmation struct {
	TransactionID string
	Status        string
}

// Processor confirms a payment intent with the card network. Implementations
// treat the client secret as single-use: a failed confirmation requires a
// fresh intent, never a retry with the same secret.
type Processor interface {
	Confirm(ctx context.Context, clientSecret, paymentMethodID string) (*Confirmation, error)
}

type stripeIntentAPI interface {
	Confirm(id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error)
}

// StripeProcessor implements Processor on the Stripe API
type StripeProcessor struct {
	intents stripeIntentAPI
}

// NewStripeProcessor constructs a Stripe-backed processor. An empty API key
// is an initialization error; the checkout flow maps a missing processor to
// an immediate failure without contacting the backend.
func NewStripeProcessor(apiKey string) (*StripeProcessor, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("stripe: api key is required")
	}

	sc := client.New(apiKey, nil)
	return &StripeProcessor{intents: sc.PaymentIntents}, nil
}

// Confirm confirms the intent behind clientSecret with the given payment
// method. Only a terminal "succeeded" status counts as success; anything else
// is surfaced with the processor's human-readable message.
func (p *StripeProcessor) Confirm(ctx context.Context, clientSecret, paymentMethodID string) (*Confirmation, error) {
	intentID, err := intentIDFromSecret(clientSecret)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethodID),
	}
	params.Context = ctx

	intent, err := p.intents.Confirm(intentID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
			return nil, errors.New(stripeErr.Msg)
		}
		return nil, err
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("payment was not completed (status %s)", intent.Status)
	}

	return &Confirmation{
		TransactionID: intent.ID,
		Status:        string(intent.Status),
	}, nil
}

// intentIDFromSecret derives the intent ID from a client secret of the form
// "pi_..._secret_...".
func intentIDFromSecret(clientSecret string) (string, error) {
	id, _, found := strings.Cut(clientSecret, "_secret_")
	if !found || id == "" {
		return "", errors.New("malformed client secret")
	}
	return id, nil
}
