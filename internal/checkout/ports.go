package checkout

import "context"

// AddressDirectory stores a user's tagged addresses.
type AddressDirectory interface {
	ListAddresses(ctx context.Context, userID string) ([]Address, error)
	AddAddress(ctx context.Context, userID string, in AddressInput) ([]Address, error)
}

// CouponValidator checks a code against an order subtotal.
type CouponValidator interface {
	ValidateCoupon(ctx context.Context, code string, orderAmount float64) (*Coupon, error)
}

// GatewayOrderRequest asks the payment gateway for an order. Amount is in
// rupees; the gateway adapter converts it.
type GatewayOrderRequest struct {
	Amount   float64           `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// GatewayOrder is the created gateway order. Amount is in paise, as the
// gateway reports it, and Key is the public key the widget opens with.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Key      string `json:"key"`
}

// VerifyRequest carries the identifiers the widget returned on success
// together with the snapshot of the order being paid.
type VerifyRequest struct {
	GatewayOrderID   string    `json:"razorpay_order_id"`
	GatewayPaymentID string    `json:"razorpay_payment_id"`
	Signature        string    `json:"razorpay_signature"`
	OrderData        OrderData `json:"orderData"`
	UserID           string    `json:"userId"`
	ClearCart        bool      `json:"clearCart"`
}

// CreateOrderRequest persists an order that needs no gateway step.
type CreateOrderRequest struct {
	OrderData     OrderData `json:"orderData"`
	UserID        string    `json:"userId"`
	ClearCart     bool      `json:"clearCart"`
	PaymentStatus string    `json:"paymentStatus"`
	Status        string    `json:"status"`
}

// PlacedOrder identifies a persisted order.
type PlacedOrder struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)
	VerifyPayment(ctx context.Context, req VerifyRequest) (*PlacedOrder, error)
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*PlacedOrder, error)
}

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// WidgetConfig is what the hosted checkout widget is opened with.
type WidgetConfig struct {
	Key         string            `json:"key"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	OrderID     string            `json:"order_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Prefill     Prefill           `json:"prefill"`
	Notes       map[string]string `json:"notes,omitempty"`
}

// Widget is the hosted payment widget running in the customer's browser.
type Widget interface {
	Available() bool
	Open(cfg WidgetConfig) error
}

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notifier shows a user-visible message.
type Notifier interface {
	Notify(level Level, text string)
}

// Navigator sends the customer to another view.
type Navigator interface {
	Redirect(url string)
}

// CartClearer empties the customer's cart after a cart checkout completes.
type CartClearer interface {
	ClearCart(ctx context.Context, userID string) error
}
