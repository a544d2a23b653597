package checkout

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/metrics"
)

const maxReceiptLen = 40

// Result is the outcome of a payment step. Pending is set while the
// hosted widget is open and the order is not placed yet.
type Result struct {
	Success        bool   `json:"success"`
	Pending        bool   `json:"pending,omitempty"`
	OrderID        string `json:"orderId,omitempty"`
	OrderNumber    string `json:"orderNumber,omitempty"`
	GatewayOrderID string `json:"gatewayOrderId,omitempty"`
	Redirect       string `json:"redirect,omitempty"`
	Error          string `json:"error,omitempty"`
}

// ConfirmationURL is where a customer lands after a placed order.
func ConfirmationURL(orderID, orderNumber string) string {
	q := url.Values{}
	q.Set("orderId", orderID)
	q.Set("orderNumber", orderNumber)
	return "/order-confirmation?" + q.Encode()
}

// ProcessPayment places the order with the selected method. It refuses
// to start while another attempt holds the payment flag. For razorpay the
// flag stays set after the widget opens; HandleGatewayEvent clears it.
func (o *Orchestrator) ProcessPayment(ctx context.Context) (Result, error) {
	s := o.state
	if s.PaymentLoading {
		o.notify(LevelInfo, "Payment is already in progress")
		return Result{Error: ErrPaymentInProgress.Error()}, ErrPaymentInProgress
	}

	billing := o.selectedBilling()
	if billing == nil {
		return o.fail(ErrBillingAddressRequired)
	}
	shipping := o.selectedShipping()
	if shipping == nil {
		return o.fail(ErrShippingAddressRequired)
	}
	if len(s.OrderSummary.Items) == 0 {
		return o.fail(ErrNoItems)
	}

	data := o.snapshot(*billing, *shipping)
	method := s.PaymentMethod

	s.PaymentLoading = true
	resetLoading := true
	defer func() {
		if resetLoading {
			s.PaymentLoading = false
		}
	}()
	metrics.PaymentAttemptsTotal.WithLabelValues(string(method)).Inc()

	switch method {
	case MethodRazorpay:
		if o.deps.Widget == nil || !o.deps.Widget.Available() {
			return o.fail(ErrWidgetUnavailable)
		}

		receipt := o.receipt()
		order, err := o.deps.Gateway.CreateOrder(ctx, GatewayOrderRequest{
			Amount:   data.Total,
			Currency: Currency,
			Receipt:  receipt,
			Notes:    o.notes(),
		})
		if err != nil {
			o.log.Error("create gateway order failed", zap.Error(err))
			return o.fail(fmt.Errorf("create payment order: %w", err))
		}

		cfg := WidgetConfig{
			Key:         order.Key,
			Amount:      order.Amount,
			Currency:    order.Currency,
			OrderID:     order.ID,
			Name:        o.deps.StoreName,
			Description: "Order payment",
			Prefill: Prefill{
				Name:    s.CustomerInfo.Name,
				Email:   s.CustomerInfo.Email,
				Contact: s.CustomerInfo.Mobile,
			},
			Notes: o.notes(),
		}
		if err := o.deps.Widget.Open(cfg); err != nil {
			return o.fail(fmt.Errorf("open payment widget: %w", err))
		}

		s.PendingPayment = &PendingPayment{
			GatewayOrderID: order.ID,
			Amount:         order.Amount,
			Currency:       order.Currency,
			Receipt:        receipt,
			OrderData:      data,
			ClearCart:      s.CheckoutType == TypeCart,
			CreatedAt:      o.deps.Now(),
		}
		resetLoading = false
		o.log.Info("payment widget opened", zap.String("gateway_order_id", order.ID), zap.Int64("amount", order.Amount))
		return Result{Success: true, Pending: true, GatewayOrderID: order.ID}, nil

	case MethodCOD:
		placed, err := o.deps.Orders.CreateOrder(ctx, CreateOrderRequest{
			OrderData:     data,
			UserID:        s.UserID,
			ClearCart:     s.CheckoutType == TypeCart,
			PaymentStatus: "pending",
			Status:        "confirmed",
		})
		if err != nil {
			o.log.Error("create order failed", zap.Error(err))
			return o.fail(fmt.Errorf("create order: %w", err))
		}
		return o.complete(ctx, method, placed), nil

	default:
		return o.fail(fmt.Errorf("%w: %s", ErrUnsupportedPaymentMethod, method))
	}
}

// HandleGatewayEvent applies the widget's terminal event to the pending
// payment. Only the first event per pending payment is accepted.
func (o *Orchestrator) HandleGatewayEvent(ctx context.Context, ev GatewayEvent) (Result, error) {
	s := o.state
	metrics.GatewayEventsTotal.WithLabelValues(EventKind(ev)).Inc()

	pending := s.PendingPayment
	if pending == nil {
		return Result{Error: ErrNoPendingPayment.Error()}, ErrNoPendingPayment
	}
	if ev == nil {
		return Result{Error: ErrUnknownGatewayEvent.Error()}, ErrUnknownGatewayEvent
	}
	// A success for another gateway order must not end the pending one.
	if e, ok := ev.(PaymentSucceeded); ok && e.OrderID != pending.GatewayOrderID {
		o.log.Warn("gateway event for another order ignored",
			zap.String("pending_gateway_order_id", pending.GatewayOrderID),
			zap.String("event_gateway_order_id", e.OrderID),
		)
		return Result{Error: ErrGatewayOrderMismatch.Error()}, ErrGatewayOrderMismatch
	}

	s.PendingPayment = nil
	method := pending.OrderData.PaymentMethod

	switch e := ev.(type) {
	case PaymentSucceeded:
		placed, err := o.deps.Gateway.VerifyPayment(ctx, VerifyRequest{
			GatewayOrderID:   e.OrderID,
			GatewayPaymentID: e.PaymentID,
			Signature:        e.Signature,
			OrderData:        pending.OrderData,
			UserID:           s.UserID,
			ClearCart:        pending.ClearCart,
		})
		if err != nil {
			s.PaymentLoading = false
			o.log.Error("payment verification failed", zap.String("gateway_order_id", e.OrderID), zap.Error(err))
			o.notify(LevelError, "Payment verification failed")
			metrics.PaymentOutcomesTotal.WithLabelValues(string(method), "failed").Inc()
			return Result{Error: "Payment verification failed"}, fmt.Errorf("verify payment: %w", err)
		}
		return o.complete(ctx, method, placed), nil

	case PaymentFailed:
		s.PaymentLoading = false
		msg := e.Description
		if msg == "" {
			msg = "Payment failed"
		}
		o.log.Info("payment failed in widget", zap.String("gateway_order_id", pending.GatewayOrderID), zap.String("code", e.Code))
		o.notify(LevelError, msg)
		metrics.PaymentOutcomesTotal.WithLabelValues(string(method), "failed").Inc()
		return Result{Error: msg}, nil

	case PaymentDismissed:
		s.PaymentLoading = false
		o.notify(LevelInfo, "Payment cancelled")
		metrics.PaymentOutcomesTotal.WithLabelValues(string(method), "dismissed").Inc()
		return Result{Error: "Payment cancelled"}, nil
	}

	s.PendingPayment = pending
	return Result{Error: ErrUnknownGatewayEvent.Error()}, ErrUnknownGatewayEvent
}

// complete runs the shared post-placement sequence: clear the cart for
// cart checkouts, reset, redirect.
func (o *Orchestrator) complete(ctx context.Context, method PaymentMethod, placed *PlacedOrder) Result {
	s := o.state
	if s.CheckoutType == TypeCart && o.deps.Cart != nil {
		if err := o.deps.Cart.ClearCart(ctx, s.UserID); err != nil {
			o.log.Warn("clear cart failed", zap.Error(err))
		}
	}

	o.Reset()
	target := ConfirmationURL(placed.OrderID, placed.OrderNumber)
	o.notify(LevelSuccess, "Order placed successfully!")
	if o.deps.Navigator != nil {
		o.deps.Navigator.Redirect(target)
	}
	metrics.PaymentOutcomesTotal.WithLabelValues(string(method), "succeeded").Inc()
	o.log.Info("order placed", zap.String("order_id", placed.OrderID), zap.String("order_number", placed.OrderNumber))

	return Result{
		Success:     true,
		OrderID:     placed.OrderID,
		OrderNumber: placed.OrderNumber,
		Redirect:    target,
	}
}

func (o *Orchestrator) fail(err error) (Result, error) {
	msg := userMessage(err, "Payment failed")
	o.notify(LevelError, msg)
	metrics.PaymentOutcomesTotal.WithLabelValues(string(o.state.PaymentMethod), "failed").Inc()
	return Result{Error: msg}, err
}

func (o *Orchestrator) selectedBilling() *Address {
	b := o.state.BillingAddress
	if b == nil || b.ID != o.state.SelectedBillingAddressID {
		return nil
	}
	return b
}

func (o *Orchestrator) selectedShipping() *Address {
	for i := range o.state.ShippingAddresses {
		if o.state.ShippingAddresses[i].ID == o.state.SelectedShippingAddressID {
			return &o.state.ShippingAddresses[i]
		}
	}
	return nil
}

func (o *Orchestrator) snapshot(billing, shipping Address) OrderData {
	s := o.state
	items := make([]OrderLineItem, len(s.OrderSummary.Items))
	copy(items, s.OrderSummary.Items)

	data := OrderData{
		CheckoutType:    s.CheckoutType,
		CustomerInfo:    s.CustomerInfo,
		Items:           items,
		Subtotal:        s.OrderSummary.Subtotal,
		ShippingCost:    s.OrderSummary.ShippingCost,
		Discount:        s.OrderSummary.Discount,
		Total:           s.OrderSummary.Total,
		PaymentMethod:   s.PaymentMethod,
		BillingAddress:  blockOf(billing),
		ShippingAddress: blockOf(shipping),
		DeliveryAddress: blockOf(shipping),
	}
	if c := s.ActiveCoupon(); c != nil {
		data.CouponCode = c.Code
	}
	return data
}

// receipt returns a fresh gateway receipt id within the gateway's limit.
func (o *Orchestrator) receipt() string {
	id := o.deps.NewID()
	if len(id) > 8 {
		id = id[:8]
	}
	r := fmt.Sprintf("rcpt_%d_%s", o.deps.Now().UnixMilli(), id)
	if len(r) > maxReceiptLen {
		r = r[:maxReceiptLen]
	}
	return r
}

func (o *Orchestrator) notes() map[string]string {
	s := o.state
	notes := map[string]string{}
	if s.UserID != "" {
		notes["userId"] = s.UserID
	}
	if s.CustomerInfo.Email != "" {
		notes["customerEmail"] = s.CustomerInfo.Email
	}
	if s.CustomerInfo.Name != "" {
		notes["customerName"] = s.CustomerInfo.Name
	}
	if len(notes) == 0 {
		return nil
	}
	return notes
}

// ExpireStalePayment drops a pending payment older than maxAge and clears
// the payment flag, as if the widget had been dismissed. It reports
// whether anything was dropped.
func (o *Orchestrator) ExpireStalePayment(maxAge time.Duration) bool {
	s := o.state
	p := s.PendingPayment
	if p == nil || maxAge <= 0 || o.deps.Now().Sub(p.CreatedAt) < maxAge {
		return false
	}
	o.log.Info("pending payment expired", zap.String("gateway_order_id", p.GatewayOrderID))
	s.PendingPayment = nil
	s.PaymentLoading = false
	return true
}
