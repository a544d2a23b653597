package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/checkout"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
)

func parseUserID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: user id", ErrInvalidInput)
	}
	return uid, nil
}

// ToCheckoutAddress converts a stored address to the checkout's shape.
func ToCheckoutAddress(a models.Address) checkout.Address {
	return checkout.Address{
		ID:        a.ID.String(),
		Tag:       checkout.AddressTag(a.Tag),
		Name:      a.Name,
		Street:    a.Street,
		City:      a.City,
		State:     a.State,
		ZipCode:   a.ZipCode,
		Country:   a.Country,
		IsDefault: a.IsDefault,
	}
}

func toCheckoutAddresses(list []models.Address) []checkout.Address {
	out := make([]checkout.Address, 0, len(list))
	for _, a := range list {
		out = append(out, ToCheckoutAddress(a))
	}
	return out
}

// CheckoutAddresses serves checkout.AddressDirectory from AddressService.
type CheckoutAddresses struct {
	Addresses *AddressService
}

func (d CheckoutAddresses) ListAddresses(ctx context.Context, userID string) ([]checkout.Address, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	list, err := d.Addresses.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	return toCheckoutAddresses(list), nil
}

func (d CheckoutAddresses) AddAddress(ctx context.Context, userID string, in checkout.AddressInput) ([]checkout.Address, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	list, err := d.Addresses.Create(ctx, uid, AddressInput{
		Tag:       string(in.Tag),
		Name:      in.Name,
		Street:    in.Street,
		City:      in.City,
		State:     in.State,
		ZipCode:   in.ZipCode,
		Country:   in.Country,
		IsDefault: in.IsDefault,
	})
	if err != nil {
		return nil, err
	}
	return toCheckoutAddresses(list), nil
}

// CheckoutCoupons serves checkout.CouponValidator from CouponService.
type CheckoutCoupons struct {
	Coupons *CouponService
}

func (v CheckoutCoupons) ValidateCoupon(ctx context.Context, code string, orderAmount float64) (*checkout.Coupon, error) {
	c, err := v.Coupons.Validate(ctx, code, orderAmount)
	if err != nil {
		return nil, err
	}
	return ToCheckoutCoupon(c), nil
}

// CheckoutGateway serves checkout.PaymentGateway for one customer.
type CheckoutGateway struct {
	Payments *PaymentService
	UserID   uuid.UUID
}

func (g CheckoutGateway) CreateOrder(ctx context.Context, req checkout.GatewayOrderRequest) (*checkout.GatewayOrder, error) {
	return g.Payments.CreateGatewayOrder(ctx, g.UserID, req)
}

func (g CheckoutGateway) VerifyPayment(ctx context.Context, req checkout.VerifyRequest) (*checkout.PlacedOrder, error) {
	userID := g.UserID
	if req.UserID != "" {
		uid, err := parseUserID(req.UserID)
		if err != nil {
			return nil, err
		}
		if uid != g.UserID {
			return nil, ErrGatewayOrderNotFound
		}
	}
	order, err := g.Payments.VerifyAndPlace(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	return &checkout.PlacedOrder{OrderID: order.ID.String(), OrderNumber: order.OrderNumber}, nil
}

// CheckoutOrders serves checkout.OrderCreator from OrderService.
type CheckoutOrders struct {
	Orders *OrderService
}

func (o CheckoutOrders) CreateOrder(ctx context.Context, req checkout.CreateOrderRequest) (*checkout.PlacedOrder, error) {
	uid, err := parseUserID(req.UserID)
	if err != nil {
		return nil, err
	}
	order, err := o.Orders.Place(ctx, PlaceOrderInput{
		UserID:        uid,
		Data:          req.OrderData,
		ClearCart:     req.ClearCart,
		Status:        req.Status,
		PaymentStatus: req.PaymentStatus,
	})
	if err != nil {
		return nil, err
	}
	return &checkout.PlacedOrder{OrderID: order.ID.String(), OrderNumber: order.OrderNumber}, nil
}
