package broker

import (
	"context"
	"fmt"

	"storefront-service/internal/models"
)

// EventPublisher publishes checkout resolution events for downstream
// analytics and order processing.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishCheckoutSucceeded publishes a CheckoutSucceeded event
func (ep *EventPublisher) PublishCheckoutSucceeded(ctx context.Context, event *models.CheckoutSucceededEvent) error {
	key := fmt.Sprintf("session-%s", event.SessionID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishCheckoutFailed publishes a CheckoutFailed event
func (ep *EventPublisher) PublishCheckoutFailed(ctx context.Context, event *models.CheckoutFailedEvent) error {
	key := fmt.Sprintf("session-%s", event.SessionID)
	return ep.producer.PublishEvent(ctx, key, event)
}
