package models

import "time"

// Event types
const (
	EventTypeCheckoutSucceeded = "CHECKOUT_SUCCEEDED"
	EventTypeCheckoutFailed    = "CHECKOUT_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckoutSucceededEvent published when a checkout attempt resolves to success
type CheckoutSucceededEvent struct {
	BaseEvent
	SessionID     string `json:"session_id"`
	OrderID       string `json:"order_id,omitempty"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	ItemCount     int    `json:"item_count"`
}

// CheckoutFailedEvent published when a checkout attempt resolves to failure
type CheckoutFailedEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	OrderID   string `json:"order_id,omitempty"`
	Stage     string `json:"stage"`
	Reason    string `json:"reason"`
}
