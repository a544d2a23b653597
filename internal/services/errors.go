package services

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrBillingAddressExists = errors.New("a billing address already exists")
	ErrAddressIncomplete    = errors.New("please fill all address fields")
	ErrInvalidAddressTag    = errors.New("address tag must be billing or shipping")

	ErrCouponNotFound      = errors.New("invalid coupon code")
	ErrCouponInactive      = errors.New("coupon is not active")
	ErrCouponNotStarted    = errors.New("coupon is not valid yet")
	ErrCouponExpired       = errors.New("coupon has expired")
	ErrCouponMinimum       = errors.New("order amount is below the coupon minimum")
	ErrCouponUsageLimit    = errors.New("coupon usage limit reached")
	ErrCouponMisconfigured = errors.New("coupon has no discount configured")

	ErrEmptyOrder         = errors.New("order has no items")
	ErrTotalsMismatch     = errors.New("order totals do not add up")
	ErrInvalidOrderStatus = errors.New("invalid order status")

	ErrProductUnavailable = errors.New("product is not available")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrPriceBelowCatalog  = errors.New("item price is below the catalog price")

	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrSignatureMismatch    = errors.New("payment signature verification failed")
	ErrGatewayOrderNotFound = errors.New("gateway order not found")
	ErrAmountMismatch       = errors.New("paid amount does not match the order total")
	ErrGatewayNotConfigured = errors.New("payment gateway is not configured")
	ErrPaymentMethodOff     = errors.New("payment method is not available")
)
