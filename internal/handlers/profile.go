package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/checkout"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/middleware"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/services"
)

// ProfileHandler manages user profile and address book endpoints.
type ProfileHandler struct {
	db        *gorm.DB
	addresses *services.AddressService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB, addresses *services.AddressService) *ProfileHandler {
	return &ProfileHandler{db: db, addresses: addresses}
}

// GetProfile returns authenticated user profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.WithContext(c.UserContext()).First(&user, "id = ?", userID).Error; err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":         user.ID,
			"name":       user.Name,
			"email":      user.Email,
			"mobile":     user.Mobile,
			"role":       user.Role,
			"created_at": user.CreatedAt,
			"updated_at": user.UpdatedAt,
		},
	})
}

type updateProfileRequest struct {
	Name   *string `json:"name"`
	Mobile *string `json:"mobile"`
}

// UpdateProfile updates user profile fields.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
		}
		updates["name"] = name
	}
	if req.Mobile != nil {
		updates["mobile"] = strings.TrimSpace(*req.Mobile)
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	if err := h.db.WithContext(c.UserContext()).Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "profile updated"})
}

// Address endpoints. Responses use the checkout's address shape.

func addressesResponse(c *fiber.Ctx, status int, list []models.Address) error {
	out := make([]checkout.Address, 0, len(list))
	for _, a := range list {
		out = append(out, services.ToCheckoutAddress(a))
	}
	return c.Status(status).JSON(fiber.Map{"success": true, "addresses": out})
}

// ListAddresses returns user addresses, billing first.
func (h *ProfileHandler) ListAddresses(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	list, err := h.addresses.List(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return addressesResponse(c, fiber.StatusOK, list)
}

// CreateAddress creates an address for the user.
func (h *ProfileHandler) CreateAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req services.AddressInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	list, err := h.addresses.Create(c.UserContext(), userID, req)
	if err != nil {
		return serviceError(err)
	}
	return addressesResponse(c, fiber.StatusCreated, list)
}

// UpdateAddress replaces a user address.
func (h *ProfileHandler) UpdateAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	addrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req services.AddressInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	list, err := h.addresses.Update(c.UserContext(), userID, addrID, req)
	if err != nil {
		return serviceError(err)
	}
	return addressesResponse(c, fiber.StatusOK, list)
}

// DeleteAddress removes a user address.
func (h *ProfileHandler) DeleteAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	addrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	list, err := h.addresses.Delete(c.UserContext(), userID, addrID)
	if err != nil {
		return serviceError(err)
	}
	return addressesResponse(c, fiber.StatusOK, list)
}
