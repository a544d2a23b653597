package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/utils"
)

// CatalogHandler manages product categories.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

type categoryCount struct {
	CategoryID uuid.UUID
	Count      int
}

// withProductCounts fills ProductCount with the number of active products.
func (h *CatalogHandler) withProductCounts(categories []models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(categories))
	for _, cat := range categories {
		ids = append(ids, cat.ID)
	}

	var counts []categoryCount
	if err := h.db.Model(&models.Product{}).
		Select("category_id, count(*) as count").
		Where("category_id IN ? AND is_active = ?", ids, true).
		Group("category_id").
		Scan(&counts).Error; err != nil {
		return err
	}

	byID := make(map[uuid.UUID]int, len(counts))
	for _, c := range counts {
		byID[c.CategoryID] = c.Count
	}
	for i := range categories {
		categories[i].ProductCount = byID[categories[i].ID]
	}
	return nil
}

// ListCategories returns paginated categories. Admin listings pass ?all=true
// to include inactive ones.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Category{})
	if !c.QueryBool("all") {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var categories []models.Category
	if err := query.Limit(pg.Limit).Offset(pg.Offset).Order("display_order asc, name asc").
		Find(&categories).Error; err != nil {
		return err
	}
	if err := h.withProductCounts(categories); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       categories,
		"pagination": pg.Meta(total),
	})
}

// GetCategory returns a single category by ID or slug.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	key := c.Params("id")
	query := h.db.Model(&models.Category{})
	if id, err := uuid.Parse(key); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", key)
	}

	var category models.Category
	if err := query.First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}
	list := []models.Category{category}
	if err := h.withProductCounts(list); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": list[0]})
}

func normalizeCategory(payload *models.Category) error {
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	payload.Slug = slugify(payload.Slug)
	if payload.Slug == "" {
		payload.Slug = slugify(payload.Name)
	}
	return nil
}

// CreateCategory persists a new category.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var payload models.Category
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	payload.ID = uuid.Nil
	if err := normalizeCategory(&payload); err != nil {
		return err
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdateCategory replaces an existing category.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	if err := c.BodyParser(&category); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	category.ID = id
	if err := normalizeCategory(&category); err != nil {
		return err
	}
	if err := h.db.Save(&category).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": category})
}

// DeleteCategory removes a category by ID. Its products are kept and
// become uncategorised.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
