package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/services"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/utils"
)

// CouponHandler validates coupons for shoppers and manages them for admins.
type CouponHandler struct {
	db      *gorm.DB
	coupons *services.CouponService
}

func NewCouponHandler(db *gorm.DB, coupons *services.CouponService) *CouponHandler {
	return &CouponHandler{db: db, coupons: coupons}
}

type validateCouponRequest struct {
	Code        string  `json:"code"`
	OrderAmount float64 `json:"orderAmount"`
}

// Validate reports whether a code applies to orderAmount and what it takes off.
func (h *CouponHandler) Validate(c *fiber.Ctx) error {
	var req validateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	coupon, err := h.coupons.Validate(c.UserContext(), req.Code, req.OrderAmount)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"coupon": fiber.Map{
			"code":           coupon.Code,
			"discount":       coupon.DiscountPercent,
			"discountAmount": coupon.DiscountAmount,
			"savings":        services.CouponDiscount(coupon, req.OrderAmount),
		},
	})
}

func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Coupon{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		query = query.Where("code ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}
	var items []models.Coupon
	if err := query.Order("created_at desc").Limit(pg.Limit).Offset(pg.Offset).Find(&items).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items, "pagination": pg.Meta(total)})
}

func validateCouponModel(item *models.Coupon) error {
	item.Code = services.NormalizeCode(item.Code)
	switch {
	case item.Code == "":
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	case item.DiscountPercent < 0 || item.DiscountPercent > 100:
		return fiber.NewError(fiber.StatusBadRequest, "discount_percent must be between 0 and 100")
	case item.DiscountAmount < 0 || item.MinOrderAmount < 0 || item.UsageLimit < 0:
		return fiber.NewError(fiber.StatusBadRequest, "amounts must not be negative")
	case item.DiscountPercent == 0 && item.DiscountAmount == 0:
		return fiber.NewError(fiber.StatusBadRequest, services.ErrCouponMisconfigured.Error())
	case item.ValidFrom != nil && item.ValidUntil != nil && item.ValidUntil.Before(*item.ValidFrom):
		return fiber.NewError(fiber.StatusBadRequest, "valid_until is before valid_from")
	}
	return nil
}

func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var item models.Coupon
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	item.ID = uuid.Nil
	item.UsedCount = 0
	if err := validateCouponModel(&item); err != nil {
		return err
	}

	var count int64
	if err := h.db.Model(&models.Coupon{}).Where("code = ?", item.Code).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fiber.NewError(fiber.StatusConflict, "coupon code already exists")
	}

	if err := h.db.Create(&item).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

func (h *CouponHandler) UpdateCoupon(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	var item models.Coupon
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "coupon not found")
		}
		return err
	}
	used := item.UsedCount
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	item.ID = id
	item.UsedCount = used
	if err := validateCouponModel(&item); err != nil {
		return err
	}
	if err := h.db.Save(&item).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

func (h *CouponHandler) DeleteCoupon(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	if err := h.db.Delete(&models.Coupon{}, "id = ?", id).Error; err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
