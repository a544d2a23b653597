package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/checkout"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/logger"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/middleware"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/services"
)

// RazorpayHandler serves the gateway endpoints the checkout widget and
// Razorpay itself call.
type RazorpayHandler struct {
	payments *services.PaymentService
	log      *zap.Logger
}

func NewRazorpayHandler(payments *services.PaymentService) *RazorpayHandler {
	return &RazorpayHandler{payments: payments, log: logger.Named("razorpay")}
}

// CreateOrder opens a Razorpay order. Amount is in rupees.
func (h *RazorpayHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req checkout.GatewayOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.payments.CreateGatewayOrder(c.UserContext(), userID, req)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"order":   fiber.Map{"id": order.ID, "amount": order.Amount, "currency": order.Currency},
		"key":     order.Key,
	})
}

// Verify checks the widget's signature and places the paid order.
func (h *RazorpayHandler) Verify(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req checkout.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing payment identifiers")
	}

	placed, err := services.CheckoutGateway{Payments: h.payments, UserID: userID}.VerifyPayment(c.UserContext(), req)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"success": true, "orderId": placed.OrderID, "orderNumber": placed.OrderNumber})
}

// Webhook applies Razorpay's server-to-server notifications. The signature
// is checked by middleware; the handler always acknowledges known bodies.
func (h *RazorpayHandler) Webhook(c *fiber.Ctx) error {
	if err := h.payments.HandleWebhook(c.UserContext(), c.Body()); err != nil {
		h.log.Error("webhook processing failed", zap.Error(err))
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"success": true})
}
