package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/middleware"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/services"
)

// CartHandler serves the authenticated user's cart.
type CartHandler struct {
	carts *services.CartService
}

func NewCartHandler(carts *services.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

func cartResponse(c *fiber.Ctx, view *services.CartView, err error) error {
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"success": true, "data": view})
}

func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	view, err := h.carts.View(c.UserContext(), userID)
	return cartResponse(c, view, err)
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	var req services.AddCartItemInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.ProductID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "product_id is required")
	}
	view, err := h.carts.AddItem(c.UserContext(), userID, req)
	return cartResponse(c, view, err)
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	var req updateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	view, err := h.carts.UpdateItem(c.UserContext(), userID, itemID, req.Quantity)
	return cartResponse(c, view, err)
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	view, err := h.carts.RemoveItem(c.UserContext(), userID, itemID)
	return cartResponse(c, view, err)
}

func (h *CartHandler) ApplyCoupon(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	var req couponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	view, err := h.carts.ApplyCoupon(c.UserContext(), userID, req.Code)
	return cartResponse(c, view, err)
}

func (h *CartHandler) RemoveCoupon(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	view, err := h.carts.RemoveCoupon(c.UserContext(), userID)
	return cartResponse(c, view, err)
}

func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	if err := h.carts.ClearCart(c.UserContext(), userID.String()); err != nil {
		return serviceError(err)
	}
	view, err := h.carts.View(c.UserContext(), userID)
	return cartResponse(c, view, err)
}
