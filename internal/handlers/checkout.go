package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/checkout"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/middleware"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/services"
)

// CheckoutHandler exposes the per-user checkout session over HTTP. Every
// call loads the session, applies one operation and saves it back.
type CheckoutHandler struct {
	manager   *checkout.Manager
	addresses *services.AddressService
	coupons   *services.CouponService
	carts     *services.CartService
	orders    *services.OrderService
	payments  *services.PaymentService
	storeName string
}

func NewCheckoutHandler(
	manager *checkout.Manager,
	addresses *services.AddressService,
	coupons *services.CouponService,
	carts *services.CartService,
	orders *services.OrderService,
	payments *services.PaymentService,
	storeName string,
) *CheckoutHandler {
	return &CheckoutHandler{
		manager:   manager,
		addresses: addresses,
		coupons:   coupons,
		carts:     carts,
		orders:    orders,
		payments:  payments,
		storeName: storeName,
	}
}

// RegisterRoutes mounts the checkout endpoints on an authenticated group.
func (h *CheckoutHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/", h.GetState)
	r.Delete("/", h.Reset)
	r.Post("/init", h.Initialize)
	r.Post("/addresses/load", h.LoadAddresses)
	r.Post("/addresses", h.AddAddress)
	r.Put("/addresses/billing", h.SelectBilling)
	r.Put("/addresses/shipping", h.SelectShipping)
	r.Post("/address-form/toggle", h.ToggleAddressForm)
	r.Put("/customer", h.SetCustomer)
	r.Post("/coupon", h.ApplyCoupon)
	r.Delete("/coupon", h.RemoveCoupon)
	r.Put("/payment-method", h.SetPaymentMethod)
	r.Put("/step", h.SetStep)
	r.Get("/validate", h.Validate)
	r.Post("/proceed", h.Proceed)
	r.Post("/pay", h.Pay)
	r.Post("/gateway-event", h.GatewayEvent)
}

type checkoutCall struct {
	recorder *checkout.Recorder
	state    *checkout.State
	result   *checkout.Result
	err      error
}

func (h *CheckoutHandler) deps(userID uuid.UUID, rec *checkout.Recorder) checkout.Deps {
	return checkout.Deps{
		Addresses: services.CheckoutAddresses{Addresses: h.addresses},
		Coupons:   services.CheckoutCoupons{Coupons: h.coupons},
		Gateway:   services.CheckoutGateway{Payments: h.payments, UserID: userID},
		Orders:    services.CheckoutOrders{Orders: h.orders},
		Widget:    rec,
		Notifier:  rec,
		Navigator: rec,
		Cart:      h.carts,
		StoreName: h.storeName,
	}
}

// run executes fn inside the user's session.
func (h *CheckoutHandler) run(c *fiber.Ctx, widgetReady bool, fn func(ctx context.Context, o *checkout.Orchestrator) error) (*checkoutCall, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	ctx := c.UserContext()
	rec := &checkout.Recorder{WidgetReady: widgetReady}
	state, err := h.manager.Do(ctx, userID.String(), h.deps(userID, rec), func(o *checkout.Orchestrator) error {
		return fn(ctx, o)
	})
	return &checkoutCall{recorder: rec, state: state, err: err}, nil
}

// respond renders the session. Domain failures still return the state and
// messages so the storefront can redraw.
func respond(c *fiber.Ctx, call *checkoutCall) error {
	if call.state == nil {
		return call.err
	}

	body := fiber.Map{
		"success":  call.err == nil,
		"data":     call.state,
		"messages": call.recorder.Messages,
	}
	if call.recorder.Messages == nil {
		body["messages"] = []checkout.Message{}
	}
	if call.recorder.RedirectURL != "" {
		body["redirect"] = call.recorder.RedirectURL
	}
	if call.recorder.Widget != nil {
		body["razorpay"] = call.recorder.Widget
	}
	if call.result != nil {
		body["result"] = call.result
	}

	status := fiber.StatusOK
	if call.err != nil {
		status = statusFor(call.err)
		if status == fiber.StatusInternalServerError {
			return call.err
		}
		body["error"] = call.err.Error()
	}
	return c.Status(status).JSON(body)
}

func (h *CheckoutHandler) simple(c *fiber.Ctx, fn func(ctx context.Context, o *checkout.Orchestrator) error) error {
	call, err := h.run(c, false, fn)
	if err != nil {
		return err
	}
	return respond(c, call)
}

func (h *CheckoutHandler) GetState(c *fiber.Ctx) error {
	return h.simple(c, func(context.Context, *checkout.Orchestrator) error { return nil })
}

func (h *CheckoutHandler) Reset(c *fiber.Ctx) error {
	return h.simple(c, func(_ context.Context, o *checkout.Orchestrator) error {
		o.Reset()
		return nil
	})
}

type initRequest struct {
	Type      checkout.Type     `json:"type"`
	ProductID string            `json:"productId"`
	VariantID string            `json:"variantId"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"selectedOptions"`
}

// Initialize starts a checkout from the user's cart or from one product.
// Prices always come from the catalog.
func (h *CheckoutHandler) Initialize(c *fiber.Ctx) error {
	var req initRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	ctx := c.UserContext()

	params := checkout.InitParams{Type: req.Type, Quantity: req.Quantity}
	switch req.Type {
	case checkout.TypeCart:
		view, err := h.carts.View(ctx, userID)
		if err != nil {
			return err
		}
		params.CartItems = view.CheckoutItems()
		params.CartCoupon = view.Coupon
	case checkout.TypeBuyNow:
		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}
		in := services.AddCartItemInput{ProductID: productID, Quantity: req.Quantity, SelectedOptions: req.Options}
		if req.VariantID != "" {
			variantID, err := uuid.Parse(req.VariantID)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid variant id")
			}
			in.VariantID = &variantID
		}
		item, err := h.carts.BuyNowItem(ctx, in)
		if err != nil {
			return serviceError(err)
		}
		params.Product = item
	default:
		return serviceError(checkout.ErrInvalidCheckoutType)
	}

	return h.simple(c, func(ctx context.Context, o *checkout.Orchestrator) error {
		if err := o.Initialize(params); err != nil {
			return err
		}
		return o.LoadUserAddresses(ctx)
	})
}

func (h *CheckoutHandler) LoadAddresses(c *fiber.Ctx) error {
	return h.simple(c, func(ctx context.Context, o *checkout.Orchestrator) error {
		return o.LoadUserAddresses(ctx)
	})
}

func (h *CheckoutHandler) AddAddress(c *fiber.Ctx) error {
	var req checkout.AddressInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return h.simple(c, func(ctx context.Context, o *checkout.Orchestrator) error {
		return o.AddNewAddress(ctx, req)
	})
}

type idRequest struct {
	ID string `json:"id"`
}

func (h *CheckoutHandler) SelectBilling(c *fiber.Ctx) error {
	var req idRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return h.simple(c, func(_ context.Context, o *checkout.Orchestrator) error {
		return o.SelectBillingAddress(req.ID)
	})
}

func (h *CheckoutHandler) SelectShipping(c *fiber.Ctx) error {
	var req idRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return h.simple(c, func(_ context.Context, o *checkout.Orchestrator) error {
		return o.SelectShippingAddress(req.ID)
	})
}

func (h *CheckoutHandler) ToggleAddressForm(c *fiber.Ctx) error {
	return h.simple(c, func(_ context.Context, o *checkout.Orchestrator) error {
		o.ToggleAddressForm()
		return nil
	})
}

func (h *CheckoutHandler) SetCustomer(c *fiber.Ctx) error {
	var req checkout.CustomerInfo
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return h.simple(c, func(_ context.Context, o *checkout.Orchestrator) error {
		o.SetCustomerInfo(req)
		return nil
	})
}

type couponRequest struct {
	Code string `json:"code"`
}

func (h *CheckoutHandler) ApplyCoupon(c *fiber.Ctx) error {
	var req couponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return h.simple(c, func(ctx context.Context, o *checkout.Orchestrator) error {
		return o.ApplyCoupon(ctx, req.Code)
	})
}

func (h *CheckoutHandler) RemoveCoupon(c *fiber.Ctx) error {
	return h.simple(c, func(_ context.Context, o *checkout.Orchestrator) error {
		return o.RemoveCoupon()
	})
}

type paymentMethodRequest struct {
	Method checkout.PaymentMethod `json:"method"`
}

func (h *CheckoutHandler) SetPaymentMethod(c *fiber.Ctx) error {
	var req paymentMethodRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return h.simple(c, func(_ context.Context, o *checkout.Orchestrator) error {
		return o.SetPaymentMethod(req.Method)
	})
}

type stepRequest struct {
	Step checkout.Step `json:"step"`
}

func (h *CheckoutHandler) SetStep(c *fiber.Ctx) error {
	var req stepRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return h.simple(c, func(_ context.Context, o *checkout.Orchestrator) error {
		return o.SetStep(req.Step)
	})
}

// Validate lists every rule the session currently violates.
func (h *CheckoutHandler) Validate(c *fiber.Ctx) error {
	var errs checkout.ValidationErrors
	call, err := h.run(c, false, func(_ context.Context, o *checkout.Orchestrator) error {
		errs = o.ValidateCheckoutData()
		return nil
	})
	if err != nil {
		return err
	}
	if call.err != nil {
		return call.err
	}
	if errs == nil {
		errs = checkout.ValidationErrors{}
	}
	return c.JSON(fiber.Map{
		"success": true,
		"valid":   len(errs) == 0,
		"errors":  errs,
	})
}

func (h *CheckoutHandler) Proceed(c *fiber.Ctx) error {
	return h.simple(c, func(_ context.Context, o *checkout.Orchestrator) error {
		return o.ProceedToPayment()
	})
}

type payRequest struct {
	WidgetReady bool `json:"widgetReady"`
}

// Pay starts payment with the selected method. For razorpay the response
// carries the widget config under "razorpay".
func (h *CheckoutHandler) Pay(c *fiber.Ctx) error {
	var req payRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	var result checkout.Result
	call, err := h.run(c, req.WidgetReady, func(ctx context.Context, o *checkout.Orchestrator) error {
		var err error
		result, err = o.ProcessPayment(ctx)
		return err
	})
	if err != nil {
		return err
	}
	call.result = &result
	return respond(c, call)
}

// GatewayEvent receives the widget's success, failure or dismissal.
func (h *CheckoutHandler) GatewayEvent(c *fiber.Ctx) error {
	ev, err := checkout.DecodeGatewayEvent(c.Body())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var result checkout.Result
	call, err := h.run(c, false, func(ctx context.Context, o *checkout.Orchestrator) error {
		var err error
		result, err = o.HandleGatewayEvent(ctx, ev)
		return err
	})
	if err != nil {
		return err
	}
	call.result = &result
	return respond(c, call)
}
