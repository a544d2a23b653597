package broker

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeOrderPlaced    = "order.placed"
	EventTypePaymentUpdated = "payment.updated"
)

type BaseEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newBase(eventType string) BaseEvent {
	return BaseEvent{EventID: uuid.NewString(), EventType: eventType, OccurredAt: time.Now().UTC()}
}

type OrderPlacedItem struct {
	ProductID  string  `json:"product_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

type OrderPlacedEvent struct {
	BaseEvent
	OrderID       string            `json:"order_id"`
	OrderNumber   string            `json:"order_number"`
	UserID        string            `json:"user_id"`
	PaymentMethod string            `json:"payment_method"`
	PaymentStatus string            `json:"payment_status"`
	Total         float64           `json:"total"`
	Currency      string            `json:"currency"`
	Items         []OrderPlacedItem `json:"items"`
}

type PaymentUpdatedEvent struct {
	BaseEvent
	OrderID          string `json:"order_id,omitempty"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id,omitempty"`
	Status           string `json:"status"`
}

// Publisher is what order and payment code depends on.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event *OrderPlacedEvent) error
	PublishPaymentUpdated(ctx context.Context, event *PaymentUpdatedEvent) error
}

// EventPublisher publishes domain events through a Producer.
type EventPublisher struct {
	producer *Producer
}

func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, event *OrderPlacedEvent) error {
	if event.EventID == "" {
		event.BaseEvent = newBase(EventTypeOrderPlaced)
	}
	return ep.producer.PublishEvent(ctx, "order-"+event.OrderID, event)
}

func (ep *EventPublisher) PublishPaymentUpdated(ctx context.Context, event *PaymentUpdatedEvent) error {
	if event.EventID == "" {
		event.BaseEvent = newBase(EventTypePaymentUpdated)
	}
	return ep.producer.PublishEvent(ctx, "payment-"+event.GatewayOrderID, event)
}

// NopPublisher drops every event. It is used when no brokers are set.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, *OrderPlacedEvent) error { return nil }

func (NopPublisher) PublishPaymentUpdated(context.Context, *PaymentUpdatedEvent) error { return nil }

// NewPublisher returns a Kafka-backed publisher, or a NopPublisher when
// brokers is empty. The returned close func is never nil.
func NewPublisher(brokers []string, topic string) (Publisher, func() error) {
	if len(brokers) == 0 || topic == "" {
		return NopPublisher{}, func() error { return nil }
	}
	producer := NewProducer(brokers, topic)
	return NewEventPublisher(producer), producer.Close
}
