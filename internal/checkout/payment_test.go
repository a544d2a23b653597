package checkout

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/pricing"
)

// ready brings the fixture to a state that passes validation.
func ready(t *testing.T, f *fixture, typ Type) {
	t.Helper()
	params := InitParams{Type: typ}
	if typ == TypeCart {
		params.CartItems = []CartItem{item("p1", 100, 150, 2), item("p2", 300, 300, 1)}
	} else {
		params.Product = &CartItem{ProductID: "p9", ProductName: "Fire Exit Sign", Input: pricing.Input{Price: 1000, MRP: 1200}}
		params.Quantity = 1
	}
	require.NoError(t, f.o.Initialize(params))

	f.addresses.On("ListAddresses", mock.Anything, testUser).
		Return([]Address{addr("b1", TagBilling, true), addr("s1", TagShipping, true)}, nil).Once()
	require.NoError(t, f.o.LoadUserAddresses(context.Background()))
	f.o.SetCustomerInfo(CustomerInfo{Name: "Asha Rao", Email: "asha@example.com", Mobile: "9876543210"})
}

func TestProcessPayment_COD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ready(t, f, TypeCart)
	require.NoError(t, f.o.SetPaymentMethod(MethodCOD))

	f.orders.On("CreateOrder", ctx, mock.MatchedBy(func(req CreateOrderRequest) bool {
		d := req.OrderData
		return req.UserID == testUser &&
			req.ClearCart &&
			req.PaymentStatus == "pending" &&
			req.Status == "confirmed" &&
			d.Total == 500 &&
			d.PaymentMethod == MethodCOD &&
			len(d.Items) == 2 &&
			d.BillingAddress.ID == "b1" &&
			d.ShippingAddress.ID == "s1" &&
			d.DeliveryAddress == d.ShippingAddress &&
			d.ShippingAddress.FullAddress == "12 MG Road, Pune, MH - 411001"
	})).Return(&PlacedOrder{OrderID: "ord-1", OrderNumber: "IPS-260314-0001"}, nil).Once()
	f.cart.On("ClearCart", ctx, testUser).Return(nil).Once()

	res, err := f.o.ProcessPayment(ctx)
	require.NoError(t, err)

	want := "/order-confirmation?orderId=ord-1&orderNumber=IPS-260314-0001"
	assert.True(t, res.Success)
	assert.Equal(t, "ord-1", res.OrderID)
	assert.Equal(t, want, res.Redirect)
	assert.Equal(t, want, f.rec.RedirectURL)

	st := f.o.State()
	assert.False(t, st.PaymentLoading)
	assert.Empty(t, st.OrderSummary.Items)
	assert.Equal(t, testUser, st.UserID)
	f.orders.AssertExpectations(t)
	f.cart.AssertExpectations(t)
	f.gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestProcessPayment_CODBuyNowKeepsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ready(t, f, TypeBuyNow)
	require.NoError(t, f.o.SetPaymentMethod(MethodCOD))

	f.orders.On("CreateOrder", ctx, mock.MatchedBy(func(req CreateOrderRequest) bool {
		return !req.ClearCart && req.OrderData.Total == 1000
	})).Return(&PlacedOrder{OrderID: "ord-2", OrderNumber: "IPS-2"}, nil)

	res, err := f.o.ProcessPayment(ctx)
	require.NoError(t, err)
	assert.True(t, res.Success)
	f.cart.AssertNotCalled(t, "ClearCart", mock.Anything, mock.Anything)
}

func openWidget(t *testing.T, f *fixture) Result {
	t.Helper()
	f.widget.On("Available").Return(true)
	f.gateway.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req GatewayOrderRequest) bool {
		return req.Amount == 500 &&
			req.Currency == "INR" &&
			len(req.Receipt) <= maxReceiptLen &&
			req.Notes["userId"] == testUser &&
			req.Notes["customerEmail"] == "asha@example.com" &&
			req.Notes["customerName"] == "Asha Rao"
	})).Return(&GatewayOrder{ID: "order_G1", Amount: 50000, Currency: "INR", Key: "rzp_test_key"}, nil).Once()
	f.widget.On("Open", mock.MatchedBy(func(cfg WidgetConfig) bool {
		return cfg.Key == "rzp_test_key" &&
			cfg.Amount == 50000 &&
			cfg.Currency == "INR" &&
			cfg.OrderID == "order_G1" &&
			cfg.Prefill.Contact == "9876543210"
	})).Return(nil).Once()

	res, err := f.o.ProcessPayment(context.Background())
	require.NoError(t, err)
	return res
}

func TestProcessPayment_RazorpayHoldsBusyFlag(t *testing.T) {
	f := newFixture(t)
	ready(t, f, TypeCart)

	res := openWidget(t, f)
	assert.True(t, res.Success)
	assert.True(t, res.Pending)
	assert.Equal(t, "order_G1", res.GatewayOrderID)

	st := f.o.State()
	assert.True(t, st.PaymentLoading)
	require.NotNil(t, st.PendingPayment)
	assert.Equal(t, "order_G1", st.PendingPayment.GatewayOrderID)
	assert.True(t, st.PendingPayment.ClearCart)
	assert.Equal(t, fixedNow, st.PendingPayment.CreatedAt)

	_, err := f.o.ProcessPayment(context.Background())
	assert.ErrorIs(t, err, ErrPaymentInProgress)
	assert.True(t, st.PaymentLoading)

	f.gateway.AssertNumberOfCalls(t, "CreateOrder", 1)
	f.widget.AssertNumberOfCalls(t, "Open", 1)
}

func TestHandleGatewayEvent_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ready(t, f, TypeCart)
	openWidget(t, f)

	f.gateway.On("VerifyPayment", ctx, mock.MatchedBy(func(req VerifyRequest) bool {
		return req.GatewayOrderID == "order_G1" &&
			req.GatewayPaymentID == "pay_1" &&
			req.Signature == "sig" &&
			req.UserID == testUser &&
			req.ClearCart &&
			req.OrderData.Total == 500
	})).Return(&PlacedOrder{OrderID: "ord-9", OrderNumber: "IPS-9"}, nil).Once()
	f.cart.On("ClearCart", ctx, testUser).Return(nil).Once()

	res, err := f.o.HandleGatewayEvent(ctx, PaymentSucceeded{OrderID: "order_G1", PaymentID: "pay_1", Signature: "sig"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, ConfirmationURL("ord-9", "IPS-9"), f.rec.RedirectURL)
	assert.False(t, f.o.State().PaymentLoading)
	assert.Nil(t, f.o.State().PendingPayment)

	_, err = f.o.HandleGatewayEvent(ctx, PaymentDismissed{})
	assert.ErrorIs(t, err, ErrNoPendingPayment)
	f.gateway.AssertExpectations(t)
	f.cart.AssertExpectations(t)
}

func TestHandleGatewayEvent_FailureAndDismiss(t *testing.T) {
	tests := []struct {
		name    string
		event   GatewayEvent
		message Message
	}{
		{"Failure", PaymentFailed{Code: "BAD_REQUEST_ERROR", Description: "Card declined by bank"}, Message{LevelError, "Card declined by bank"}},
		{"FailureWithoutDescription", PaymentFailed{}, Message{LevelError, "Payment failed"}},
		{"Dismissed", PaymentDismissed{}, Message{LevelInfo, "Payment cancelled"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ready(t, f, TypeCart)
			openWidget(t, f)

			res, err := f.o.HandleGatewayEvent(context.Background(), tt.event)
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, tt.message, lastMessage(f.rec))

			st := f.o.State()
			assert.False(t, st.PaymentLoading)
			assert.Nil(t, st.PendingPayment)
			assert.Len(t, st.OrderSummary.Items, 2, "state is kept for a retry")
			assert.Empty(t, f.rec.RedirectURL)
			f.gateway.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleGatewayEvent_VerificationFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ready(t, f, TypeCart)
	openWidget(t, f)
	f.gateway.On("VerifyPayment", ctx, mock.Anything).Return(nil, errors.New("signature mismatch"))

	res, err := f.o.HandleGatewayEvent(ctx, PaymentSucceeded{OrderID: "order_G1", PaymentID: "pay_1", Signature: "bad"})
	assert.Error(t, err)
	assert.False(t, res.Success)
	assert.False(t, f.o.State().PaymentLoading)
	assert.Len(t, f.o.State().OrderSummary.Items, 2)
	f.cart.AssertNotCalled(t, "ClearCart", mock.Anything, mock.Anything)
}

func TestHandleGatewayEvent_OrderMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ready(t, f, TypeCart)
	openWidget(t, f)

	_, err := f.o.HandleGatewayEvent(ctx, PaymentSucceeded{OrderID: "order_OTHER", PaymentID: "pay_x"})
	assert.ErrorIs(t, err, ErrGatewayOrderMismatch)

	st := f.o.State()
	assert.True(t, st.PaymentLoading)
	require.NotNil(t, st.PendingPayment)
	assert.Equal(t, "order_G1", st.PendingPayment.GatewayOrderID)
	f.gateway.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything)

	f.gateway.On("VerifyPayment", ctx, mock.MatchedBy(func(req VerifyRequest) bool {
		return req.GatewayOrderID == "order_G1" && req.GatewayPaymentID == "pay_1"
	})).Return(&PlacedOrder{OrderID: "ord-9", OrderNumber: "IPS-9"}, nil).Once()
	f.cart.On("ClearCart", ctx, testUser).Return(nil).Once()

	res, err := f.o.HandleGatewayEvent(ctx, PaymentSucceeded{OrderID: "order_G1", PaymentID: "pay_1", Signature: "sig"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Nil(t, f.o.State().PendingPayment)
	f.gateway.AssertExpectations(t)
}

func TestInitialize_RefusedWhileWidgetOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ready(t, f, TypeCart)
	openWidget(t, f)

	err := f.o.Initialize(InitParams{Type: TypeCart, CartItems: []CartItem{item("p1", 10, 10, 1)}})
	assert.ErrorIs(t, err, ErrPaymentInProgress)

	st := f.o.State()
	assert.True(t, st.PaymentLoading)
	require.NotNil(t, st.PendingPayment)
	assert.Len(t, st.OrderSummary.Items, 2)

	_, err = f.o.ProcessPayment(ctx)
	assert.ErrorIs(t, err, ErrPaymentInProgress)
	f.gateway.AssertNumberOfCalls(t, "CreateOrder", 1)

	f.gateway.On("VerifyPayment", ctx, mock.Anything).Return(&PlacedOrder{OrderID: "ord-1", OrderNumber: "IPS-1"}, nil).Once()
	f.cart.On("ClearCart", ctx, testUser).Return(nil).Once()
	res, err := f.o.HandleGatewayEvent(ctx, PaymentSucceeded{OrderID: "order_G1", PaymentID: "pay_1", Signature: "sig"})
	require.NoError(t, err)
	assert.True(t, res.Success)

	require.NoError(t, f.o.Initialize(InitParams{Type: TypeCart, CartItems: []CartItem{item("p1", 10, 10, 1)}}))
}

func TestHandleGatewayEvent_NoPending(t *testing.T) {
	f := newFixture(t)
	_, err := f.o.HandleGatewayEvent(context.Background(), PaymentSucceeded{OrderID: "order_G1"})
	assert.ErrorIs(t, err, ErrNoPendingPayment)
}

func TestProcessPayment_WidgetUnavailable(t *testing.T) {
	f := newFixture(t)
	ready(t, f, TypeCart)
	f.widget.On("Available").Return(false)

	res, err := f.o.ProcessPayment(context.Background())
	assert.ErrorIs(t, err, ErrWidgetUnavailable)
	assert.False(t, res.Success)
	assert.False(t, f.o.State().PaymentLoading)
	f.gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestProcessPayment_GatewayError(t *testing.T) {
	f := newFixture(t)
	ready(t, f, TypeCart)
	f.widget.On("Available").Return(true)
	f.gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, errors.New("gateway down"))

	res, err := f.o.ProcessPayment(context.Background())
	assert.Error(t, err)
	assert.NotEmpty(t, res.Error)
	assert.False(t, f.o.State().PaymentLoading)
	assert.Nil(t, f.o.State().PendingPayment)
	f.widget.AssertNotCalled(t, "Open", mock.Anything)
}

func TestProcessPayment_Preconditions(t *testing.T) {
	t.Run("NoBilling", func(t *testing.T) {
		f := newFixture(t)
		ready(t, f, TypeCart)
		f.o.State().BillingAddress = nil

		_, err := f.o.ProcessPayment(context.Background())
		assert.ErrorIs(t, err, ErrBillingAddressRequired)
		assert.False(t, f.o.State().PaymentLoading)
	})

	t.Run("NoShipping", func(t *testing.T) {
		f := newFixture(t)
		ready(t, f, TypeCart)
		f.o.State().SelectedShippingAddressID = "gone"

		_, err := f.o.ProcessPayment(context.Background())
		assert.ErrorIs(t, err, ErrShippingAddressRequired)
	})

	t.Run("NoItems", func(t *testing.T) {
		f := newFixture(t)
		ready(t, f, TypeCart)
		f.o.State().OrderSummary.Items = nil

		_, err := f.o.ProcessPayment(context.Background())
		assert.ErrorIs(t, err, ErrNoItems)
		assert.Equal(t, LevelError, lastMessage(f.rec).Level)
	})
}

func TestProcessPayment_UnsupportedMethod(t *testing.T) {
	f := newFixture(t)
	ready(t, f, TypeCart)
	require.NoError(t, f.o.SetPaymentMethod(MethodUPI))

	_, err := f.o.ProcessPayment(context.Background())
	assert.ErrorIs(t, err, ErrUnsupportedPaymentMethod)
	assert.False(t, f.o.State().PaymentLoading)
	f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestExpireStalePayment(t *testing.T) {
	f := newFixture(t)
	ready(t, f, TypeCart)
	openWidget(t, f)

	assert.False(t, f.o.ExpireStalePayment(30*time.Minute))
	f.now = f.now.Add(31 * time.Minute)
	assert.True(t, f.o.ExpireStalePayment(30*time.Minute))
	assert.False(t, f.o.State().PaymentLoading)
	assert.Nil(t, f.o.State().PendingPayment)
}

func TestReceipt(t *testing.T) {
	f := newFixture(t)
	r := f.o.receipt()
	assert.Regexp(t, regexp.MustCompile(`^rcpt_\d{13}_3f2a9c1d$`), r)
	assert.LessOrEqual(t, len(r), maxReceiptLen)
}
