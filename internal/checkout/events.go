package checkout

import (
	"encoding/json"
	"fmt"
)

// GatewayEvent is one of the terminal outcomes of the hosted widget:
// PaymentSucceeded, PaymentFailed or PaymentDismissed.
type GatewayEvent interface {
	kind() string
}

type PaymentSucceeded struct {
	OrderID   string
	PaymentID string
	Signature string
}

type PaymentFailed struct {
	Code        string
	Description string
}

type PaymentDismissed struct{}

func (PaymentSucceeded) kind() string { return "success" }
func (PaymentFailed) kind() string    { return "failure" }
func (PaymentDismissed) kind() string { return "dismissed" }

// EventKind names an event for logs and metrics.
func EventKind(ev GatewayEvent) string {
	if ev == nil {
		return "unknown"
	}
	return ev.kind()
}

type rawGatewayEvent struct {
	Type              string `json:"type"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	Error             struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// DecodeGatewayEvent parses the event the browser posts after the widget
// closes. The field names follow the widget's own callback payloads.
func DecodeGatewayEvent(body []byte) (GatewayEvent, error) {
	var raw rawGatewayEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode gateway event: %w", err)
	}

	switch raw.Type {
	case "success":
		return PaymentSucceeded{
			OrderID:   raw.RazorpayOrderID,
			PaymentID: raw.RazorpayPaymentID,
			Signature: raw.RazorpaySignature,
		}, nil
	case "failure":
		return PaymentFailed{Code: raw.Error.Code, Description: raw.Error.Description}, nil
	case "dismissed":
		return PaymentDismissed{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownGatewayEvent, raw.Type)
}
