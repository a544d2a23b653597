package checkout

import (
	"errors"
	"strings"
)

var (
	ErrPaymentInProgress        = errors.New("a payment is already in progress")
	ErrNoPendingPayment         = errors.New("no payment is awaiting a gateway response")
	ErrBillingAddressRequired   = errors.New("billing address is required")
	ErrShippingAddressRequired  = errors.New("shipping address is required")
	ErrNoItems                  = errors.New("no items in order")
	ErrWidgetUnavailable        = errors.New("payment gateway is not available, please refresh and try again")
	ErrUnsupportedPaymentMethod = errors.New("payment method is not supported")
	ErrUnknownPaymentMethod     = errors.New("unknown payment method")
	ErrCouponNotApplicable      = errors.New("coupons for cart checkout are managed from the cart")
	ErrEmptyCouponCode          = errors.New("please enter a coupon code")
	ErrIncompleteAddress        = errors.New("please fill all address fields")
	ErrAddressNotFound          = errors.New("address not found")
	ErrInvalidStep              = errors.New("invalid checkout step")
	ErrInvalidCheckoutType      = errors.New("invalid checkout type")
	ErrGatewayOrderMismatch     = errors.New("gateway order does not match the pending payment")
	ErrMissingProduct           = errors.New("buy now checkout needs a product")
	ErrUnknownGatewayEvent      = errors.New("unknown gateway event")
)

// ValidationErrors lists every checkout rule the current state violates.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return strings.Join(v, "; ")
}
