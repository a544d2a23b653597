package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestEventPublisher_OrderPlaced(t *testing.T) {
	w := &fakeWriter{}
	ep := NewEventPublisher(&Producer{writer: w, log: zap.NewNop()})

	err := ep.PublishOrderPlaced(context.Background(), &OrderPlacedEvent{
		OrderID:       "ord-1",
		OrderNumber:   "IPS-1",
		PaymentMethod: "cod",
		Total:         550,
		Currency:      "INR",
		Items:         []OrderPlacedItem{{ProductID: "p1", Quantity: 1, UnitPrice: 500, TotalPrice: 500}},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "order-ord-1", string(w.msgs[0].Key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, EventTypeOrderPlaced, decoded["event_type"])
	assert.NotEmpty(t, decoded["event_id"])
	assert.Equal(t, "IPS-1", decoded["order_number"])
}

func TestEventPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	ep := NewEventPublisher(&Producer{writer: w, log: zap.NewNop()})

	err := ep.PublishPaymentUpdated(context.Background(), &PaymentUpdatedEvent{GatewayOrderID: "order_1", Status: "captured"})
	assert.ErrorContains(t, err, "broker down")
}

func TestNewPublisher_NoBrokers(t *testing.T) {
	pub, closeFn := NewPublisher(nil, "orders")
	assert.IsType(t, NopPublisher{}, pub)
	assert.NoError(t, pub.PublishOrderPlaced(context.Background(), &OrderPlacedEvent{}))
	assert.NoError(t, closeFn())
}
