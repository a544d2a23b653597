// Package checkout holds the per-user checkout state and the orchestrator
// that walks it from item selection to a placed order.
package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/pricing"
)

// Type tells which item set and which coupon slot are authoritative.
type Type string

const (
	TypeCart   Type = "cart"
	TypeBuyNow Type = "buyNow"
)

// PaymentMethod identifies how the customer pays.
type PaymentMethod string

const (
	MethodRazorpay   PaymentMethod = "razorpay"
	MethodCOD        PaymentMethod = "cod"
	MethodUPI        PaymentMethod = "upi"
	MethodCard       PaymentMethod = "card"
	MethodNetBanking PaymentMethod = "netbanking"
	MethodWallet     PaymentMethod = "wallet"

	DefaultPaymentMethod = MethodRazorpay
)

// Valid reports whether m is a declared method. Only razorpay and cod are
// processed; the rest are accepted as a selection but rejected at payment.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodRazorpay, MethodCOD, MethodUPI, MethodCard, MethodNetBanking, MethodWallet:
		return true
	}
	return false
}

// Step is the visible checkout step.
type Step int

const (
	StepAddress Step = 1
	StepPayment Step = 2
)

const (
	FreeShippingThreshold = 500.0
	FlatShippingCost      = 50.0
	Currency              = "INR"
)

// AddressTag separates the single billing address from shipping ones.
type AddressTag string

const (
	TagBilling  AddressTag = "billing"
	TagShipping AddressTag = "shipping"
)

type Address struct {
	ID        string     `json:"_id"`
	Tag       AddressTag `json:"tag"`
	Name      string     `json:"name"`
	Street    string     `json:"street"`
	City      string     `json:"city"`
	State     string     `json:"state"`
	ZipCode   string     `json:"zipCode"`
	Country   string     `json:"country"`
	IsDefault bool       `json:"isDefault"`
}

// FullAddress renders the one-line form used on invoices and notifications.
func (a Address) FullAddress() string {
	return fmt.Sprintf("%s, %s, %s - %s", a.Street, a.City, a.State, a.ZipCode)
}

// AddressInput is an address before the directory assigns it an id.
type AddressInput struct {
	Tag       AddressTag `json:"tag"`
	Name      string     `json:"name"`
	Street    string     `json:"street"`
	City      string     `json:"city"`
	State     string     `json:"state"`
	ZipCode   string     `json:"zipCode"`
	Country   string     `json:"country"`
	IsDefault bool       `json:"isDefault"`
}

// Complete reports whether every mandatory field is filled.
func (in AddressInput) Complete() bool {
	for _, v := range []string{in.Name, in.Street, in.City, in.State, in.ZipCode} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

func emptyAddressForm() AddressInput {
	return AddressInput{Tag: TagShipping, Country: "India"}
}

// Coupon carries either a percentage (Discount) or a fixed rupee amount
// (DiscountAmount). The fixed amount wins when both are set.
type Coupon struct {
	Code           string  `json:"code"`
	Discount       float64 `json:"discount,omitempty"`
	DiscountAmount float64 `json:"discountAmount,omitempty"`
}

// DiscountFor returns the rupee discount the coupon gives on subtotal.
func (c *Coupon) DiscountFor(subtotal float64) float64 {
	if c == nil {
		return 0
	}
	if c.DiscountAmount > 0 {
		return pricing.Round(c.DiscountAmount)
	}
	if c.Discount > 0 {
		return pricing.Round(subtotal * c.Discount / 100)
	}
	return 0
}

type OrderLineItem struct {
	ProductID       string            `json:"productId"`
	ProductName     string            `json:"productName"`
	ProductImage    string            `json:"productImage"`
	Quantity        int               `json:"quantity"`
	Price           float64           `json:"price"`
	MRP             float64           `json:"mrp"`
	DiscountAmount  float64           `json:"discountAmount"`
	SelectedOptions map[string]string `json:"selectedOptions,omitempty"`
	TotalPrice      float64           `json:"totalPrice"`
}

type OrderSummary struct {
	Items        []OrderLineItem `json:"items"`
	Subtotal     float64         `json:"subtotal"`
	ShippingCost float64         `json:"shippingCost"`
	Discount     float64         `json:"discount"`
	Total        float64         `json:"total"`
}

type CustomerInfo struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

// CartItem is an item as the cart or product page hands it over. Price
// fields are loosely typed and resolved by the pricing normalizer.
type CartItem struct {
	ProductID       string            `json:"productId"`
	ProductName     string            `json:"productName"`
	ProductImage    string            `json:"productImage"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `json:"selectedOptions,omitempty"`
	pricing.Input
}

// InitParams starts a checkout either from the cart or from one product.
type InitParams struct {
	Type       Type       `json:"type"`
	CartItems  []CartItem `json:"cartItems"`
	Product    *CartItem  `json:"product"`
	Quantity   int        `json:"quantity"`
	CartCoupon *Coupon    `json:"cartCoupon"`
}

// AddressBlock is an address as embedded in an order snapshot.
type AddressBlock struct {
	Address
	FullAddress string `json:"fullAddress"`
}

func blockOf(a Address) AddressBlock {
	return AddressBlock{Address: a, FullAddress: a.FullAddress()}
}

// OrderData is the immutable snapshot sent to order persistence.
// DeliveryAddress duplicates ShippingAddress for older consumers.
type OrderData struct {
	CheckoutType    Type            `json:"checkoutType"`
	CustomerInfo    CustomerInfo    `json:"customerInfo"`
	Items           []OrderLineItem `json:"items"`
	Subtotal        float64         `json:"subtotal"`
	ShippingCost    float64         `json:"shippingCost"`
	Discount        float64         `json:"discount"`
	Total           float64         `json:"total"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	CouponCode      string          `json:"couponCode,omitempty"`
	BillingAddress  AddressBlock    `json:"billingAddress"`
	ShippingAddress AddressBlock    `json:"shippingAddress"`
	DeliveryAddress AddressBlock    `json:"deliveryAddress"`
}

// PendingPayment is recorded while the hosted payment widget is open.
type PendingPayment struct {
	GatewayOrderID string    `json:"gatewayOrderId"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	Receipt        string    `json:"receipt"`
	OrderData      OrderData `json:"orderData"`
	ClearCart      bool      `json:"clearCart"`
	CreatedAt      time.Time `json:"createdAt"`
}

// State is everything one user's checkout remembers between requests.
type State struct {
	UserID       string       `json:"userId"`
	CheckoutType Type         `json:"checkoutType"`
	CustomerInfo CustomerInfo `json:"customerInfo"`

	BillingAddress            *Address  `json:"billingAddress"`
	ShippingAddresses         []Address `json:"shippingAddresses"`
	SelectedBillingAddressID  string    `json:"selectedBillingAddressId"`
	SelectedShippingAddressID string    `json:"selectedShippingAddressId"`

	OrderSummary      OrderSummary `json:"orderSummary"`
	CartAppliedCoupon *Coupon      `json:"cartAppliedCoupon"`
	AppliedCoupon     *Coupon      `json:"appliedCoupon"`

	CurrentStep    Step            `json:"currentStep"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	IsLoading      bool            `json:"isLoading"`
	PaymentLoading bool            `json:"paymentLoading"`
	PendingPayment *PendingPayment `json:"pendingPayment,omitempty"`

	NewAddress      AddressInput `json:"newAddress"`
	ShowAddressForm bool         `json:"showAddressForm"`
}

// NewState returns a state with every field at its default.
func NewState() *State {
	return &State{
		CheckoutType:  TypeCart,
		OrderSummary:  OrderSummary{Items: []OrderLineItem{}},
		CurrentStep:   StepAddress,
		PaymentMethod: DefaultPaymentMethod,
		NewAddress:    emptyAddressForm(),
	}
}

// ActiveCoupon returns the coupon in the slot that counts for the
// current checkout type.
func (s *State) ActiveCoupon() *Coupon {
	if s.CheckoutType == TypeBuyNow {
		return s.AppliedCoupon
	}
	return s.CartAppliedCoupon
}
