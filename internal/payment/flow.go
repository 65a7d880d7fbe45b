package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/cart"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// State is the checkout attempt's position in the confirmation protocol
type State string

const (
	StateIdle            State = "IDLE"
	StateIntentRequested State = "INTENT_REQUESTED"
	StateIntentReady     State = "INTENT_READY"
	StateConfirming      State = "CONFIRMING"
	StateSucceeded       State = "SUCCEEDED"
	StateFailed          State = "FAILED"
)

// Failure stages, used for metrics labels and event payloads
const (
	StageValidation     = "validation"
	StageInitialization = "initialization"
	StageBackend        = "backend"
	StageProcessor      = "processor"
)

// ErrCheckoutInFlight is returned when a submission arrives while an earlier
// attempt is still talking to a remote collaborator. At most one attempt per
// cart is in flight at a time.
var ErrCheckoutInFlight = errors.New("checkout already in progress")

// Error is a terminal checkout failure carrying the stage it happened in and
// a message suitable for the user.
type Error struct {
	Stage   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IntentCreator creates payment intents on the payment backend
type IntentCreator interface {
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, description string) (string, error)
}

// Flow drives one cart's checkout attempts through the two-step confirmation
// protocol: create an intent on the backend, confirm it with the processor,
// then resolve. Each attempt requests a brand-new intent; client secrets are
// never reused. A successful attempt schedules the cart clear after the
// celebration delay so the user sees the success view with the cart intact;
// the timer is owned here and canceled on Close so a torn-down session never
// receives a late clear.
type Flow struct {
	backend   IntentCreator
	processor Processor
	publisher *broker.EventPublisher
	cart      *cart.Cart
	sessionID string
	delay     time.Duration
	logger    *zap.Logger

	mu         sync.Mutex
	state      State
	failure    *Error
	clearTimer *time.Timer
	onClear    func()
	closed     bool
}

// NewFlow creates a checkout flow for one session's cart. processor may be
// nil when the processor client failed to initialize; submissions then fail
// immediately without contacting the backend. publisher may be nil.
func NewFlow(backend IntentCreator, processor Processor, publisher *broker.EventPublisher,
	c *cart.Cart, sessionID string, celebrationDelay time.Duration) *Flow {
	return &Flow{
		backend:   backend,
		processor: processor,
		publisher: publisher,
		cart:      c,
		sessionID: sessionID,
		delay:     celebrationDelay,
		logger:    util.GetLogger(),
		state:     StateIdle,
	}
}

// SetOnClear registers a callback invoked after the celebration-delay clear
// empties the cart. The session owner uses it to bring the persisted snapshot
// in line with the cleared cart; without it a process restart would resurrect
// items that were already paid for.
func (f *Flow) SetOnClear(fn func()) {
	f.mu.Lock()
	f.onClear = fn
	f.mu.Unlock()
}

// State returns the current state so presentation can disable resubmission
// while an attempt is in flight.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Failure returns the terminal failure of the last attempt, nil otherwise
func (f *Flow) Failure() *Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failure
}

// Submit runs one checkout attempt. The amount charged is the cart's total
// read exactly once at submission time, so the displayed and charged amounts
// cannot drift.
func (f *Flow) Submit(ctx context.Context, orderID, paymentMethodID string) (*models.PaymentResult, error) {
	f.mu.Lock()
	switch f.state {
	case StateIntentRequested, StateIntentReady, StateConfirming:
		f.mu.Unlock()
		return nil, ErrCheckoutInFlight
	}
	if f.closed {
		f.mu.Unlock()
		return nil, errors.New("checkout flow is closed")
	}

	// A retry restarts the machine from idle with a fresh intent.
	f.state = StateIdle
	f.failure = nil

	amount := f.cart.TotalPrice()
	itemCount := f.cart.TotalItems()

	util.CheckoutAttemptsTotal.Inc()

	if !amount.IsPositive() {
		f.mu.Unlock()
		return nil, f.fail(ctx, orderID, StageValidation, "invalid amount")
	}
	if paymentMethodID == "" {
		f.mu.Unlock()
		return nil, f.fail(ctx, orderID, StageValidation, "missing payment method")
	}
	if f.processor == nil {
		f.mu.Unlock()
		return nil, f.fail(ctx, orderID, StageInitialization, "payment processor not initialized")
	}

	f.state = StateIntentRequested
	f.mu.Unlock()

	ctx, span := util.StartSpan(ctx, "CheckoutFlow.Submit")
	defer span.End()

	description := "Storefront Order"
	if orderID != "" {
		description = fmt.Sprintf("Order #%s", orderID)
	}

	clientSecret, err := f.backend.CreatePaymentIntent(ctx, amount, description)
	if err != nil {
		return nil, f.fail(ctx, orderID, StageBackend, err.Error())
	}

	f.setState(StateIntentReady)
	f.setState(StateConfirming)

	confirmStart := time.Now()
	confirmation, err := f.processor.Confirm(ctx, clientSecret, paymentMethodID)
	util.PaymentConfirmLatency.Observe(time.Since(confirmStart).Seconds())
	if err != nil {
		return nil, f.fail(ctx, orderID, StageProcessor, err.Error())
	}

	result := &models.PaymentResult{
		TransactionID: confirmation.TransactionID,
		Amount:        amount,
		Status:        confirmation.Status,
		OrderID:       orderID,
	}

	f.mu.Lock()
	f.state = StateSucceeded
	if !f.closed {
		f.clearTimer = time.AfterFunc(f.delay, func() {
			f.cart.Clear()
			util.CartClearsTotal.WithLabelValues("checkout").Inc()
			f.logger.Info("Cart cleared after successful checkout",
				zap.String("session_id", f.sessionID))

			f.mu.Lock()
			onClear := f.onClear
			f.mu.Unlock()
			if onClear != nil {
				onClear()
			}
		})
	}
	f.mu.Unlock()

	util.CheckoutSucceededTotal.Inc()
	f.logger.Info("Checkout succeeded",
		zap.String("session_id", f.sessionID),
		zap.String("tx_id", result.TransactionID),
		zap.String("amount", amount.String()))

	f.publishSucceeded(ctx, result, itemCount)

	return result, nil
}

// Close cancels any pending cart clear and rejects further submissions. It is
// called on session teardown so a deferred clear never runs against a
// disposed session.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	if f.clearTimer != nil {
		f.clearTimer.Stop()
		f.clearTimer = nil
	}
}

// CancelScheduledClear stops the pending celebration-delay clear, if any.
// Used when the success view is unmounted before the delay elapses.
func (f *Flow) CancelScheduledClear() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.clearTimer != nil {
		f.clearTimer.Stop()
		f.clearTimer = nil
	}
}

func (f *Flow) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

func (f *Flow) fail(ctx context.Context, orderID, stage, message string) error {
	failure := &Error{Stage: stage, Message: message}

	f.mu.Lock()
	f.state = StateFailed
	f.failure = failure
	f.mu.Unlock()

	util.CheckoutFailedTotal.WithLabelValues(stage).Inc()
	f.logger.Warn("Checkout failed",
		zap.String("session_id", f.sessionID),
		zap.String("stage", stage),
		zap.String("reason", message))

	f.publishFailed(ctx, orderID, stage, message)

	return failure
}

func (f *Flow) publishSucceeded(ctx context.Context, result *models.PaymentResult, itemCount int) {
	if f.publisher == nil {
		return
	}

	event := &models.CheckoutSucceededEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCheckoutSucceeded,
			Timestamp: time.Now(),
		},
		SessionID:     f.sessionID,
		OrderID:       result.OrderID,
		TransactionID: result.TransactionID,
		Amount:        result.Amount.String(),
		ItemCount:     itemCount,
	}

	if err := f.publisher.PublishCheckoutSucceeded(ctx, event); err != nil {
		f.logger.Error("Failed to publish CheckoutSucceeded event", zap.Error(err))
	}
}

func (f *Flow) publishFailed(ctx context.Context, orderID, stage, reason string) {
	if f.publisher == nil {
		return
	}

	event := &models.CheckoutFailedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCheckoutFailed,
			Timestamp: time.Now(),
		},
		SessionID: f.sessionID,
		OrderID:   orderID,
		Stage:     stage,
		Reason:    reason,
	}

	if err := f.publisher.PublishCheckoutFailed(ctx, event); err != nil {
		f.logger.Error("Failed to publish CheckoutFailed event", zap.Error(err))
	}
}
