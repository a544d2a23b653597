package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/checkout"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/middleware"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/services"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/utils"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	orders   *services.OrderService
	payments *services.PaymentService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService, payments *services.PaymentService) *OrderHandler {
	return &OrderHandler{orders: orders, payments: payments}
}

// CreateOrder places an order that needs no gateway step (cash on
// delivery). Gateway payments go through /api/payment/verify instead.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req checkout.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.UserID != "" && req.UserID != userID.String() {
		return fiber.NewError(fiber.StatusForbidden, "order belongs to another user")
	}
	if req.OrderData.PaymentMethod != checkout.MethodCOD {
		return fiber.NewError(fiber.StatusBadRequest, "only cash on delivery orders can be placed directly")
	}

	enabled, err := h.payments.MethodEnabled(c.UserContext(), string(checkout.MethodCOD))
	if err != nil {
		return err
	}
	if !enabled {
		return serviceError(services.ErrPaymentMethodOff)
	}

	order, err := h.orders.Place(c.UserContext(), services.PlaceOrderInput{
		UserID:        userID,
		Data:          req.OrderData,
		ClearCart:     req.ClearCart,
		Status:        models.OrderStatusConfirmed,
		PaymentStatus: models.PaymentStatusPending,
	})
	if err != nil {
		return serviceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"data": fiber.Map{
			"status":    order.Status,
			"placed_at": order.PlacedAt,
			"total":     order.TotalAmount,
			"currency":  order.Currency,
		},
	})
}

// ListOrders returns orders for authenticated user.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	orders, total, err := h.orders.ListForUser(c.UserContext(), userID, c.Query("status"), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Meta(total),
	})
}

// GetOrder returns a single order for the authenticated user.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	order, err := h.orders.GetForUser(c.UserContext(), userID, id)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}
