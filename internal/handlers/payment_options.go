package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/checkout"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/services"
)

// PaymentOptionHandler manages the payment methods offered at checkout.
type PaymentOptionHandler struct {
	db       *gorm.DB
	payments *services.PaymentService
}

func NewPaymentOptionHandler(db *gorm.DB, payments *services.PaymentService) *PaymentOptionHandler {
	return &PaymentOptionHandler{db: db, payments: payments}
}

// ListPaymentOptions returns active options; admins may pass ?all=true.
func (h *PaymentOptionHandler) ListPaymentOptions(c *fiber.Ctx) error {
	items, err := h.payments.Options(c.UserContext(), c.QueryBool("all"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func validatePaymentOption(item *models.PaymentOption) error {
	item.Method = strings.ToLower(strings.TrimSpace(item.Method))
	if !checkout.PaymentMethod(item.Method).Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown payment method")
	}
	if strings.TrimSpace(item.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	return nil
}

func (h *PaymentOptionHandler) CreatePaymentOption(c *fiber.Ctx) error {
	var item models.PaymentOption
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	item.ID = uuid.Nil
	if err := validatePaymentOption(&item); err != nil {
		return err
	}
	if err := h.db.Create(&item).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

func (h *PaymentOptionHandler) UpdatePaymentOption(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	var item models.PaymentOption
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "payment option not found")
		}
		return err
	}
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	item.ID = id
	if err := validatePaymentOption(&item); err != nil {
		return err
	}
	if err := h.db.Save(&item).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

func (h *PaymentOptionHandler) DeletePaymentOption(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	if err := h.db.Delete(&models.PaymentOption{}, "id = ?", id).Error; err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
