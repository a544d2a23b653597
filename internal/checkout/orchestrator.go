package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/logger"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/metrics"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/pricing"
)

// Deps are the collaborators an Orchestrator talks to. Notifier, Navigator
// and Cart may be nil.
type Deps struct {
	Addresses AddressDirectory
	Coupons   CouponValidator
	Gateway   PaymentGateway
	Orders    OrderCreator
	Widget    Widget
	Notifier  Notifier
	Navigator Navigator
	Cart      CartClearer

	StoreName string
	Now       func() time.Time
	NewID     func() string
	Logger    *zap.Logger
}

// Orchestrator drives one user's checkout. It is not safe for concurrent
// use; Manager serializes access per user.
type Orchestrator struct {
	state *State
	deps  Deps
	log   *zap.Logger
}

// New wraps state. A nil state starts from NewState.
func New(state *State, deps Deps) *Orchestrator {
	if state == nil {
		state = NewState()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.StoreName == "" {
		deps.StoreName = "Safety Store"
	}
	log := deps.Logger
	if log == nil {
		log = logger.Named("checkout")
	}
	return &Orchestrator{state: state, deps: deps, log: log.With(zap.String("user_id", state.UserID))}
}

func (o *Orchestrator) State() *State { return o.state }

func (o *Orchestrator) notify(level Level, text string) {
	if o.deps.Notifier != nil {
		o.deps.Notifier.Notify(level, text)
	}
}

// Initialize builds the order summary from the cart or a single product.
// Customer info, addresses and the payment method survive.
// It is refused while a payment is outstanding; only the widget's terminal
// event, Reset or stale expiry release it.
func (o *Orchestrator) Initialize(p InitParams) error {
	s := o.state
	if s.PaymentLoading || s.PendingPayment != nil {
		return ErrPaymentInProgress
	}

	var items []CartItem
	switch p.Type {
	case TypeCart:
		items = p.CartItems
	case TypeBuyNow:
		if p.Product == nil {
			return ErrMissingProduct
		}
		product := *p.Product
		product.Quantity = p.Quantity
		items = []CartItem{product}
	default:
		return ErrInvalidCheckoutType
	}

	lines := make([]OrderLineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, lineItem(item))
	}

	s.CheckoutType = p.Type
	s.OrderSummary = OrderSummary{Items: lines}
	s.CartAppliedCoupon = nil
	if p.Type == TypeCart {
		s.CartAppliedCoupon = p.CartCoupon
	}
	s.AppliedCoupon = nil
	s.IsLoading = false
	s.CurrentStep = StepAddress

	o.RecalculateTotal()
	metrics.CheckoutInitializedTotal.WithLabelValues(string(p.Type)).Inc()
	o.log.Debug("checkout initialized",
		zap.String("type", string(p.Type)),
		zap.Int("items", len(lines)),
		zap.Float64("total", s.OrderSummary.Total),
	)
	return nil
}

func lineItem(item CartItem) OrderLineItem {
	price := pricing.Normalize(item.Input)
	qty := item.Quantity
	if qty < 1 {
		qty = 1
	}
	return OrderLineItem{
		ProductID:       item.ProductID,
		ProductName:     item.ProductName,
		ProductImage:    item.ProductImage,
		Quantity:        qty,
		Price:           price.FinalPrice,
		MRP:             price.MRP,
		DiscountAmount:  price.DiscountAmount,
		SelectedOptions: item.SelectedOptions,
		TotalPrice:      pricing.Round(price.FinalPrice * float64(qty)),
	}
}

// ShippingFor returns the shipping charge for a subtotal.
func ShippingFor(subtotal float64) float64 {
	if subtotal >= FreeShippingThreshold {
		return 0
	}
	return FlatShippingCost
}

// RecalculateTotal recomputes the summary amounts from the items and the
// authoritative coupon.
func (o *Orchestrator) RecalculateTotal() {
	sum := &o.state.OrderSummary

	var subtotal float64
	for _, item := range sum.Items {
		subtotal += item.TotalPrice
	}
	sum.Subtotal = pricing.Round(subtotal)
	sum.ShippingCost = ShippingFor(sum.Subtotal)
	sum.Discount = o.state.ActiveCoupon().DiscountFor(sum.Subtotal)
	sum.Total = pricing.Round(sum.Subtotal + sum.ShippingCost - sum.Discount)
}

// LoadUserAddresses refreshes the address lists from the directory. A
// shipping selection that still exists is kept.
func (o *Orchestrator) LoadUserAddresses(ctx context.Context) error {
	s := o.state
	s.IsLoading = true
	defer func() { s.IsLoading = false }()

	addresses, err := o.deps.Addresses.ListAddresses(ctx, s.UserID)
	if err != nil {
		o.log.Warn("load addresses failed", zap.Error(err))
		o.notify(LevelError, "Failed to load addresses")
		return err
	}

	var billing *Address
	shipping := make([]Address, 0, len(addresses))
	for i := range addresses {
		switch addresses[i].Tag {
		case TagBilling:
			if billing == nil {
				a := addresses[i]
				billing = &a
			}
		default:
			shipping = append(shipping, addresses[i])
		}
	}

	s.BillingAddress = billing
	s.SelectedBillingAddressID = ""
	if billing != nil {
		s.SelectedBillingAddressID = billing.ID
	}

	s.ShippingAddresses = shipping
	s.SelectedShippingAddressID = pickShipping(shipping, s.SelectedShippingAddressID)
	return nil
}

func pickShipping(list []Address, previous string) string {
	if len(list) == 0 {
		return ""
	}
	if previous != "" {
		for _, a := range list {
			if a.ID == previous {
				return previous
			}
		}
	}
	for _, a := range list {
		if a.IsDefault {
			return a.ID
		}
	}
	return list[0].ID
}

// AddNewAddress validates the form locally, stores the address and reloads
// the lists so the directory's default and billing rules are reflected.
func (o *Orchestrator) AddNewAddress(ctx context.Context, in AddressInput) error {
	if !in.Complete() {
		o.notify(LevelError, "Please fill all address fields")
		return ErrIncompleteAddress
	}
	if in.Tag == "" {
		in.Tag = TagShipping
	}

	s := o.state
	s.IsLoading = true
	_, err := o.deps.Addresses.AddAddress(ctx, s.UserID, in)
	s.IsLoading = false
	if err != nil {
		o.log.Warn("add address failed", zap.Error(err))
		o.notify(LevelError, userMessage(err, "Failed to add address"))
		return err
	}

	if err := o.LoadUserAddresses(ctx); err != nil {
		return err
	}
	s.NewAddress = emptyAddressForm()
	s.ShowAddressForm = false
	o.notify(LevelSuccess, "Address added successfully")
	return nil
}

// ApplyCoupon validates code against the current subtotal. Only buy-now
// checkouts own a coupon slot.
func (o *Orchestrator) ApplyCoupon(ctx context.Context, code string) error {
	s := o.state
	if s.CheckoutType != TypeBuyNow {
		o.notify(LevelInfo, "Coupons for cart checkout are managed from the cart")
		return ErrCouponNotApplicable
	}
	code = strings.TrimSpace(code)
	if code == "" {
		o.notify(LevelError, "Please enter a coupon code")
		return ErrEmptyCouponCode
	}

	coupon, err := o.deps.Coupons.ValidateCoupon(ctx, code, s.OrderSummary.Subtotal)
	if err != nil {
		o.notify(LevelError, userMessage(err, "Invalid coupon code"))
		return err
	}

	s.AppliedCoupon = coupon
	o.RecalculateTotal()
	o.notify(LevelSuccess, "Coupon applied successfully")
	return nil
}

func (o *Orchestrator) RemoveCoupon() error {
	s := o.state
	if s.CheckoutType != TypeBuyNow {
		o.notify(LevelInfo, "Coupons for cart checkout are managed from the cart")
		return ErrCouponNotApplicable
	}
	s.AppliedCoupon = nil
	o.RecalculateTotal()
	o.notify(LevelSuccess, "Coupon removed")
	return nil
}

// ValidateCheckoutData returns every violated rule, or nil.
func (o *Orchestrator) ValidateCheckoutData() ValidationErrors {
	s := o.state
	var errs ValidationErrors
	if strings.TrimSpace(s.CustomerInfo.Name) == "" {
		errs = append(errs, "Name is required")
	}
	if strings.TrimSpace(s.CustomerInfo.Email) == "" {
		errs = append(errs, "Email is required")
	}
	if strings.TrimSpace(s.CustomerInfo.Mobile) == "" {
		errs = append(errs, "Mobile number is required")
	}
	if s.SelectedBillingAddressID == "" {
		errs = append(errs, "Please select a billing address")
	}
	if s.SelectedShippingAddressID == "" {
		errs = append(errs, "Please select a shipping address")
	}
	if len(s.OrderSummary.Items) == 0 {
		errs = append(errs, "No items in order")
	}
	return errs
}

// ProceedToPayment moves to the payment step when the state validates.
func (o *Orchestrator) ProceedToPayment() error {
	if errs := o.ValidateCheckoutData(); len(errs) > 0 {
		for _, e := range errs {
			o.notify(LevelError, e)
		}
		return errs
	}
	o.state.CurrentStep = StepPayment
	return nil
}

func (o *Orchestrator) SetCustomerInfo(info CustomerInfo) {
	o.state.CustomerInfo = CustomerInfo{
		Name:   strings.TrimSpace(info.Name),
		Email:  strings.TrimSpace(info.Email),
		Mobile: strings.TrimSpace(info.Mobile),
	}
}

func (o *Orchestrator) SelectBillingAddress(id string) error {
	if o.state.BillingAddress == nil || o.state.BillingAddress.ID != id {
		return ErrAddressNotFound
	}
	o.state.SelectedBillingAddressID = id
	return nil
}

func (o *Orchestrator) SelectShippingAddress(id string) error {
	for _, a := range o.state.ShippingAddresses {
		if a.ID == id {
			o.state.SelectedShippingAddressID = id
			return nil
		}
	}
	return ErrAddressNotFound
}

func (o *Orchestrator) SetPaymentMethod(m PaymentMethod) error {
	if !m.Valid() {
		return ErrUnknownPaymentMethod
	}
	o.state.PaymentMethod = m
	return nil
}

func (o *Orchestrator) SetStep(step Step) error {
	if step != StepAddress && step != StepPayment {
		return ErrInvalidStep
	}
	o.state.CurrentStep = step
	return nil
}

// ToggleAddressForm flips the add-address form open or closed.
func (o *Orchestrator) ToggleAddressForm() {
	o.state.ShowAddressForm = !o.state.ShowAddressForm
}

// Reset returns the checkout to its defaults. The owning user is kept.
func (o *Orchestrator) Reset() {
	userID := o.state.UserID
	*o.state = *NewState()
	o.state.UserID = userID
}

// userMessage prefers the collaborator's own message over a generic one.
func userMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve.Error()
	}
	if msg := err.Error(); msg != "" {
		return capitalize(msg)
	}
	return fallback
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
