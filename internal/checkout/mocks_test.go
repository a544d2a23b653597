package checkout

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockAddresses struct{ mock.Mock }

func (m *mockAddresses) ListAddresses(ctx context.Context, userID string) ([]Address, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]Address)
	return list, args.Error(1)
}

func (m *mockAddresses) AddAddress(ctx context.Context, userID string, in AddressInput) ([]Address, error) {
	args := m.Called(ctx, userID, in)
	list, _ := args.Get(0).([]Address)
	return list, args.Error(1)
}

type mockCoupons struct{ mock.Mock }

func (m *mockCoupons) ValidateCoupon(ctx context.Context, code string, orderAmount float64) (*Coupon, error) {
	args := m.Called(ctx, code, orderAmount)
	c, _ := args.Get(0).(*Coupon)
	return c, args.Error(1)
}

type mockGateway struct{ mock.Mock }

func (m *mockGateway) CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error) {
	args := m.Called(ctx, req)
	o, _ := args.Get(0).(*GatewayOrder)
	return o, args.Error(1)
}

func (m *mockGateway) VerifyPayment(ctx context.Context, req VerifyRequest) (*PlacedOrder, error) {
	args := m.Called(ctx, req)
	p, _ := args.Get(0).(*PlacedOrder)
	return p, args.Error(1)
}

type mockOrders struct{ mock.Mock }

func (m *mockOrders) CreateOrder(ctx context.Context, req CreateOrderRequest) (*PlacedOrder, error) {
	args := m.Called(ctx, req)
	p, _ := args.Get(0).(*PlacedOrder)
	return p, args.Error(1)
}

type mockWidget struct{ mock.Mock }

func (m *mockWidget) Available() bool {
	return m.Called().Bool(0)
}

func (m *mockWidget) Open(cfg WidgetConfig) error {
	return m.Called(cfg).Error(0)
}

type mockCart struct{ mock.Mock }

func (m *mockCart) ClearCart(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
