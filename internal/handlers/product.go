package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/cache"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/logger"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/pricing"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/services"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/utils"
)

const catalogVersionKey = "catalog:version"

// ProductHandler serves the catalog and manages product CRUD. Listings are
// cached; any write bumps the catalog version so stale pages are skipped.
type ProductHandler struct {
	db         *gorm.DB
	cache      cache.Cache
	ttl        time.Duration
	superseder *services.Superseder
	log        *zap.Logger
}

// NewProductHandler constructs ProductHandler. A nil cache disables caching.
func NewProductHandler(db *gorm.DB, c cache.Cache, ttl time.Duration, superseder *services.Superseder) *ProductHandler {
	if superseder == nil {
		superseder = services.NewSuperseder()
	}
	return &ProductHandler{db: db, cache: c, ttl: ttl, superseder: superseder, log: logger.Named("products")}
}

// ProductView is a product with its normalized pricing.
type ProductView struct {
	models.Product
	Pricing           pricing.Pricing `json:"pricing"`
	PriceRange        pricing.Range   `json:"priceRange"`
	ShowStrikethrough bool            `json:"showStrikethrough"`
}

func newProductView(p models.Product) ProductView {
	r := services.ProductPriceRange(&p)
	return ProductView{
		Product:           p,
		Pricing:           services.ProductPrice(&p),
		PriceRange:        r,
		ShowStrikethrough: r.ShowStrikethrough(),
	}
}

func (h *ProductHandler) catalogVersion(ctx context.Context) string {
	raw, err := h.cache.Get(ctx, catalogVersionKey)
	if err != nil {
		return "0"
	}
	return string(raw)
}

func (h *ProductHandler) invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(ctx, catalogVersionKey, []byte(uuid.NewString()), 0); err != nil {
		h.log.Warn("bump catalog version failed", zap.Error(err))
	}
}

// cached serves key from the cache or stores what load returns.
func (h *ProductHandler) cached(ctx context.Context, key string, load func() (fiber.Map, error)) (fiber.Map, error) {
	if h.cache == nil || h.ttl <= 0 {
		return load()
	}
	key = "catalog:" + h.catalogVersion(ctx) + ":" + key

	if raw, err := h.cache.Get(ctx, key); err == nil {
		var body fiber.Map
		if err := json.Unmarshal(raw, &body); err == nil {
			return body, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		h.log.Warn("catalog cache read failed", zap.Error(err))
	}

	body, err := load()
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(body); err == nil {
		if err := h.cache.Set(ctx, key, raw, h.ttl); err != nil {
			h.log.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return body, nil
}

// clientKey identifies the caller for request superseding.
func clientKey(c *fiber.Ctx) string {
	if id := c.Get("X-Client-ID"); id != "" {
		return id
	}
	return c.IP()
}

// ListProducts returns paginated active products with optional filters. A
// newer listing request from the same client cancels the older one.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	ctx, done := h.superseder.Begin(c.UserContext(), clientKey(c))
	defer done()

	pg := utils.ParsePagination(c)
	key := "list:" + string(c.Request().URI().QueryString())
	body, err := h.cached(ctx, key, func() (fiber.Map, error) {
		return h.listProducts(ctx, c, pg)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fiber.NewError(fiber.StatusConflict, "superseded by a newer request")
		}
		return err
	}
	return c.JSON(body)
}

func (h *ProductHandler) listProducts(ctx context.Context, c *fiber.Ctx, pg utils.Pagination) (fiber.Map, error) {
	query := h.db.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)

	if v := c.Query("category_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			query = query.Where("category_id = ?", id)
		}
	}
	if slug := c.Query("category"); slug != "" {
		query = query.Where("category_id IN (?)", h.db.Model(&models.Category{}).Select("id").Where("slug = ?", slug))
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("name ILIKE ? OR short_description ILIKE ?", q, q)
	}
	if tag := strings.TrimSpace(c.Query("tag")); tag != "" {
		query = query.Where("? = ANY(tags)", tag)
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		if val, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("price >= ?", val)
		}
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if val, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("price <= ?", val)
		}
	}
	if c.QueryBool("featured") {
		query = query.Where("is_featured = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	order := "created_at desc"
	switch c.Query("sort") {
	case "price_asc":
		order = "price asc"
	case "price_desc":
		order = "price desc"
	case "name":
		order = "name asc"
	}

	var products []models.Product
	if err := query.Preload("Category").
		Preload("Variants", "is_active = ?", true).
		Limit(pg.Limit).Offset(pg.Offset).
		Order(order).
		Find(&products).Error; err != nil {
		return nil, err
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, newProductView(p))
	}

	return fiber.Map{
		"success":    true,
		"data":       views,
		"pagination": pg.Meta(total),
	}, nil
}

// GetProduct loads a product by ID or slug.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	ctx := c.UserContext()
	key := c.Params("id")

	body, err := h.cached(ctx, "product:"+key, func() (fiber.Map, error) {
		query := h.db.WithContext(ctx).
			Preload("Category").
			Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("price asc") }).
			Preload("Specifications", func(db *gorm.DB) *gorm.DB { return db.Order("display_order asc") })
		if id, err := uuid.Parse(key); err == nil {
			query = query.Where("id = ?", id)
		} else {
			query = query.Where("slug = ?", key)
		}

		var product models.Product
		if err := query.First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fiber.NewError(fiber.StatusNotFound, "product not found")
			}
			return nil, err
		}
		return fiber.Map{"success": true, "data": newProductView(product)}, nil
	})
	if err != nil {
		return err
	}
	return c.JSON(body)
}

type productRequest struct {
	Slug             string           `json:"slug"`
	Name             string           `json:"name"`
	ShortDescription string           `json:"short_description"`
	Description      string           `json:"description"`
	Price            any              `json:"price"`
	OriginalPrice    any              `json:"original_price"`
	MRP              any              `json:"mrp"`
	Currency         string           `json:"currency"`
	Material         string           `json:"material"`
	Images           []string         `json:"images"`
	Tags             []string         `json:"tags"`
	Stock            int              `json:"stock"`
	IsActive         *bool            `json:"is_active"`
	IsFeatured       bool             `json:"is_featured"`
	CategoryID       string           `json:"category_id"`
	Variants         []variantRequest `json:"variants"`
	Specifications   []specRequest    `json:"specifications"`
}

type variantRequest struct {
	SKU      string `json:"sku"`
	Label    string `json:"label"`
	Size     string `json:"size"`
	Material string `json:"material"`
	Price    any    `json:"price"`
	MRP      any    `json:"mrp"`
	Stock    int    `json:"stock"`
	IsActive *bool  `json:"is_active"`
}

type specRequest struct {
	Label        string `json:"label"`
	Value        string `json:"value"`
	DisplayOrder int    `json:"display_order"`
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-"), "-")
}

// optionalAmount parses a loosely typed price; absent or unusable is nil.
func optionalAmount(v any) *float64 {
	if amount, ok := pricing.ParseAmount(v); ok {
		return &amount
	}
	return nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func buildProductFromRequest(req productRequest) (models.Product, error) {
	price, ok := pricing.ParseAmount(req.Price)
	if !ok {
		return models.Product{}, errors.New("price must be a non-negative number")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.Product{}, errors.New("name is required")
	}
	slug := slugify(req.Slug)
	if slug == "" {
		slug = slugify(name)
	}
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	product := models.Product{
		Slug:             slug,
		Name:             name,
		ShortDescription: req.ShortDescription,
		Description:      req.Description,
		Price:            price,
		OriginalPrice:    optionalAmount(req.OriginalPrice),
		MRP:              optionalAmount(req.MRP),
		Currency:         currency,
		Material:         req.Material,
		Images:           pq.StringArray(req.Images),
		Tags:             pq.StringArray(req.Tags),
		Stock:            req.Stock,
		IsActive:         boolOr(req.IsActive, true),
		IsFeatured:       req.IsFeatured,
	}

	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return product, errors.New("invalid category_id")
		}
		product.CategoryID = &id
	}

	for i, v := range req.Variants {
		vPrice, ok := pricing.ParseAmount(v.Price)
		if !ok {
			return product, fmt.Errorf("variant %d: price must be a non-negative number", i+1)
		}
		product.Variants = append(product.Variants, models.ProductVariant{
			SKU:      v.SKU,
			Label:    v.Label,
			Size:     v.Size,
			Material: v.Material,
			Price:    vPrice,
			MRP:      optionalAmount(v.MRP),
			Stock:    v.Stock,
			IsActive: boolOr(v.IsActive, true),
		})
	}

	for _, s := range req.Specifications {
		product.Specifications = append(product.Specifications, models.ProductSpecification{
			Label:        s.Label,
			Value:        s.Value,
			DisplayOrder: s.DisplayOrder,
		})
	}

	return product, nil
}

// CreateProduct handles product creation.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	product, err := buildProductFromRequest(req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.db.WithContext(c.UserContext()).Create(&product).Error; err != nil {
		return err
	}
	h.invalidate(c.UserContext())

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": newProductView(product)})
}

// UpdateProduct updates an existing product and replaces its variants and
// specifications.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var existing models.Product
	if err := h.db.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	product, err := buildProductFromRequest(req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	for i := range product.Variants {
		product.Variants[i].ProductID = product.ID
	}
	for i := range product.Specifications {
		product.Specifications[i].ProductID = product.ID
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductSpecification{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(&product).Error
	}); err != nil {
		return err
	}
	h.invalidate(c.UserContext())

	return c.JSON(fiber.Map{"success": true, "data": newProductView(product)})
}

// DeleteProduct removes a product and its variants and specifications.
// Cart lines pointing at it are dropped; placed orders keep their snapshot.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductSpecification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, "id = ?", id).Error
	}); err != nil {
		return err
	}
	h.invalidate(c.UserContext())

	return c.SendStatus(fiber.StatusNoContent)
}

// RegisterProductRoutes attaches public product routes.
func (h *ProductHandler) RegisterProductRoutes(router fiber.Router) {
	router.Get("/", h.ListProducts)
	router.Get("/:id", h.GetProduct)
}

// RegisterAdminRoutes attaches product management routes.
func (h *ProductHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Post("/", h.CreateProduct)
	router.Put("/:id", h.UpdateProduct)
	router.Delete("/:id", h.DeleteProduct)
}
