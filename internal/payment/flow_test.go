package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"storefront-service/internal/cart"
	"storefront-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	calls   int
	err     error
	amounts []decimal.Decimal
}

func (f *fakeBackend) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, description string) (string, error) {
	f.calls++
	f.amounts = append(f.amounts, amount)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("pi_%d_secret_abc", f.calls), nil
}

type fakeProcessor struct {
	calls   int
	secrets []string
	err     error
	txID    string
	block   chan struct{}
}

func (f *fakeProcessor) Confirm(ctx context.Context, clientSecret, paymentMethodID string) (*Confirmation, error) {
	f.calls++
	f.secrets = append(f.secrets, clientSecret)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Confirmation{TransactionID: f.txID, Status: "succeeded"}, nil
}

func checkoutCart(t *testing.T, price string, quantity int) *cart.Cart {
	t.Helper()
	c := cart.New()
	c.AddItem(models.Product{ID: 1, Name: "product", Price: decimal.RequireFromString(price)}, quantity)
	return c
}

func TestSubmitSuccess(t *testing.T) {
	backend := &fakeBackend{}
	processor := &fakeProcessor{txID: "tx_1"}
	c := checkoutCart(t, "49.99", 1)

	flow := NewFlow(backend, processor, nil, c, "sess-1", 50*time.Millisecond)

	result, err := flow.Submit(context.Background(), "ORDER-1", "pm_card")
	require.NoError(t, err)

	assert.Equal(t, "tx_1", result.TransactionID)
	assert.True(t, decimal.RequireFromString("49.99").Equal(result.Amount))
	assert.Equal(t, "succeeded", result.Status)
	assert.Equal(t, "ORDER-1", result.OrderID)
	assert.Equal(t, StateSucceeded, flow.State())

	// The charged amount is the cart's exact total, not a recomputation.
	require.Len(t, backend.amounts, 1)
	assert.True(t, c.TotalPrice().Equal(backend.amounts[0]))

	// The cart stays populated through the celebration window and empties
	// only after it elapses.
	assert.Equal(t, 1, c.TotalItems())
	require.Eventually(t, func() bool {
		return c.TotalItems() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestSubmitZeroAmountFailsWithoutNetworkCalls(t *testing.T) {
	backend := &fakeBackend{}
	processor := &fakeProcessor{txID: "tx_1"}
	c := cart.New() // empty cart, total zero

	flow := NewFlow(backend, processor, nil, c, "sess-1", time.Millisecond)

	_, err := flow.Submit(context.Background(), "", "pm_card")
	require.Error(t, err)

	var checkoutErr *Error
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, StageValidation, checkoutErr.Stage)
	assert.Equal(t, StateFailed, flow.State())

	assert.Zero(t, backend.calls)
	assert.Zero(t, processor.calls)
}

func TestSubmitMissingPaymentMethod(t *testing.T) {
	backend := &fakeBackend{}
	processor := &fakeProcessor{txID: "tx_1"}
	flow := NewFlow(backend, processor, nil, checkoutCart(t, "10.00", 1), "sess-1", time.Millisecond)

	_, err := flow.Submit(context.Background(), "", "")
	require.Error(t, err)

	var checkoutErr *Error
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, StageValidation, checkoutErr.Stage)
	assert.Zero(t, backend.calls)
}

func TestSubmitWithoutProcessorFailsBeforeBackend(t *testing.T) {
	backend := &fakeBackend{}
	flow := NewFlow(backend, nil, nil, checkoutCart(t, "10.00", 1), "sess-1", time.Millisecond)

	_, err := flow.Submit(context.Background(), "", "pm_card")
	require.Error(t, err)

	var checkoutErr *Error
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, StageInitialization, checkoutErr.Stage)
	assert.Zero(t, backend.calls)
}

func TestSubmitBackendFailureStopsBeforeProcessor(t *testing.T) {
	backend := &fakeBackend{err: errors.New("intent rejected")}
	processor := &fakeProcessor{txID: "tx_1"}
	flow := NewFlow(backend, processor, nil, checkoutCart(t, "10.00", 1), "sess-1", time.Millisecond)

	_, err := flow.Submit(context.Background(), "", "pm_card")
	require.Error(t, err)

	var checkoutErr *Error
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, StageBackend, checkoutErr.Stage)
	assert.Equal(t, "intent rejected", checkoutErr.Message)

	assert.Equal(t, 1, backend.calls)
	assert.Zero(t, processor.calls)
}

func TestSubmitProcessorDeclineCarriesMessage(t *testing.T) {
	backend := &fakeBackend{}
	processor := &fakeProcessor{err: errors.New("Your card was declined.")}
	flow := NewFlow(backend, processor, nil, checkoutCart(t, "10.00", 1), "sess-1", time.Millisecond)

	_, err := flow.Submit(context.Background(), "", "pm_card")
	require.Error(t, err)

	var checkoutErr *Error
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, StageProcessor, checkoutErr.Stage)
	assert.Equal(t, "Your card was declined.", checkoutErr.Message)
	assert.Equal(t, StateFailed, flow.State())
	assert.Equal(t, checkoutErr, flow.Failure())
}

func TestRetryIssuesFreshIntent(t *testing.T) {
	backend := &fakeBackend{}
	processor := &fakeProcessor{err: errors.New("declined")}
	flow := NewFlow(backend, processor, nil, checkoutCart(t, "10.00", 1), "sess-1", time.Millisecond)

	_, err := flow.Submit(context.Background(), "", "pm_card")
	require.Error(t, err)

	_, err = flow.Submit(context.Background(), "", "pm_card")
	require.Error(t, err)

	// Each attempt creates a brand-new intent; secrets are never reused.
	require.Equal(t, 2, backend.calls)
	require.Len(t, processor.secrets, 2)
	assert.NotEqual(t, processor.secrets[0], processor.secrets[1])
}

func TestSecondSubmissionRejectedWhileInFlight(t *testing.T) {
	backend := &fakeBackend{}
	processor := &fakeProcessor{txID: "tx_1", block: make(chan struct{})}
	flow := NewFlow(backend, processor, nil, checkoutCart(t, "10.00", 1), "sess-1", time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = flow.Submit(context.Background(), "", "pm_card")
	}()

	require.Eventually(t, func() bool {
		return flow.State() == StateConfirming
	}, time.Second, time.Millisecond)

	_, err := flow.Submit(context.Background(), "", "pm_card")
	assert.ErrorIs(t, err, ErrCheckoutInFlight)

	close(processor.block)
	<-done
	assert.Equal(t, 1, processor.calls)
}

func TestScheduledClearNotifiesOwner(t *testing.T) {
	backend := &fakeBackend{}
	processor := &fakeProcessor{txID: "tx_1"}
	c := checkoutCart(t, "10.00", 1)
	flow := NewFlow(backend, processor, nil, c, "sess-1", 10*time.Millisecond)

	notified := make(chan struct{})
	flow.SetOnClear(func() { close(notified) })

	_, err := flow.Submit(context.Background(), "", "pm_card")
	require.NoError(t, err)

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("clear callback never fired")
	}
	// The callback runs after the cart is emptied, so the owner observes the
	// cleared state.
	assert.Equal(t, 0, c.TotalItems())
}

func TestCancelScheduledClearKeepsCart(t *testing.T) {
	backend := &fakeBackend{}
	processor := &fakeProcessor{txID: "tx_1"}
	c := checkoutCart(t, "10.00", 2)
	flow := NewFlow(backend, processor, nil, c, "sess-1", 50*time.Millisecond)

	_, err := flow.Submit(context.Background(), "", "pm_card")
	require.NoError(t, err)

	flow.CancelScheduledClear()

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 2, c.TotalItems())
}

func TestCloseCancelsPendingClear(t *testing.T) {
	backend := &fakeBackend{}
	processor := &fakeProcessor{txID: "tx_1"}
	c := checkoutCart(t, "10.00", 2)
	flow := NewFlow(backend, processor, nil, c, "sess-1", 50*time.Millisecond)

	_, err := flow.Submit(context.Background(), "", "pm_card")
	require.NoError(t, err)

	flow.Close()

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 2, c.TotalItems())

	// A closed flow refuses further submissions.
	_, err = flow.Submit(context.Background(), "", "pm_card")
	assert.Error(t, err)
}
