package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/checkout"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/pricing"
)

// CartService keeps one server-side cart per user.
type CartService struct {
	db      *gorm.DB
	coupons *CouponService
}

func NewCartService(db *gorm.DB, coupons *CouponService) *CartService {
	return &CartService{db: db, coupons: coupons}
}

type AddCartItemInput struct {
	ProductID       uuid.UUID         `json:"product_id"`
	VariantID       *uuid.UUID        `json:"variant_id"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `json:"selected_options"`
}

// CartLine is a cart item with its resolved pricing.
type CartLine struct {
	ID              uuid.UUID         `json:"id"`
	ProductID       uuid.UUID         `json:"product_id"`
	VariantID       *uuid.UUID        `json:"variant_id,omitempty"`
	Name            string            `json:"name"`
	Slug            string            `json:"slug"`
	Image           string            `json:"image"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `json:"selected_options,omitempty"`
	Pricing         pricing.Pricing   `json:"pricing"`
	LineTotal       float64           `json:"line_total"`
	input           pricing.Input
}

// CartView is the priced cart returned to the storefront.
type CartView struct {
	ID       uuid.UUID        `json:"id"`
	Items    []CartLine       `json:"items"`
	Subtotal float64          `json:"subtotal"`
	Coupon   *checkout.Coupon `json:"coupon,omitempty"`
	Discount float64          `json:"discount"`
	Shipping float64          `json:"shipping"`
	Total    float64          `json:"total"`
}

// linePrice picks the variant's price fields when the line has a variant.
func linePrice(item *models.CartItem) pricing.Input {
	if item.Variant != nil {
		in := pricing.Input{Price: item.Variant.Price}
		if item.Variant.MRP != nil {
			in.MRP = *item.Variant.MRP
		}
		return in
	}
	if item.Product == nil {
		return pricing.Input{}
	}
	in := pricing.Input{Price: item.Product.Price}
	if item.Product.OriginalPrice != nil {
		in.OriginalPrice = *item.Product.OriginalPrice
	}
	if item.Product.MRP != nil {
		in.MRP = *item.Product.MRP
	}
	return in
}

func buildCartView(cart *models.Cart, coupon *models.Coupon) CartView {
	view := CartView{ID: cart.ID, Items: make([]CartLine, 0, len(cart.Items))}
	for i := range cart.Items {
		item := &cart.Items[i]
		in := linePrice(item)
		p := pricing.Normalize(in)
		line := CartLine{
			ID:              item.ID,
			ProductID:       item.ProductID,
			VariantID:       item.VariantID,
			Quantity:        item.Quantity,
			SelectedOptions: item.SelectedOptions,
			Pricing:         p,
			LineTotal:       pricing.Round(p.FinalPrice * float64(item.Quantity)),
			input:           in,
		}
		if item.Product != nil {
			line.Name = item.Product.Name
			line.Slug = item.Product.Slug
			line.Image = item.Product.FirstImage()
		}
		if item.Variant != nil && item.Variant.Label != "" {
			line.Name = fmt.Sprintf("%s (%s)", line.Name, item.Variant.Label)
		}
		view.Items = append(view.Items, line)
		view.Subtotal += line.LineTotal
	}
	view.Subtotal = pricing.Round(view.Subtotal)

	if coupon != nil {
		view.Coupon = ToCheckoutCoupon(coupon)
		view.Discount = CouponDiscount(coupon, view.Subtotal)
	}
	view.Shipping = checkout.ShippingFor(view.Subtotal)
	view.Total = pricing.Round(view.Subtotal + view.Shipping - view.Discount)
	return view
}

// ToCheckoutCoupon converts a stored coupon to the checkout's shape.
func ToCheckoutCoupon(c *models.Coupon) *checkout.Coupon {
	return &checkout.Coupon{Code: c.Code, Discount: c.DiscountPercent, DiscountAmount: c.DiscountAmount}
}

// CheckoutItems turns a priced cart into checkout items.
func (v CartView) CheckoutItems() []checkout.CartItem {
	items := make([]checkout.CartItem, 0, len(v.Items))
	for _, line := range v.Items {
		items = append(items, checkout.CartItem{
			ProductID:       line.ProductID.String(),
			ProductName:     line.Name,
			ProductImage:    line.Image,
			Quantity:        line.Quantity,
			SelectedOptions: line.SelectedOptions,
			Input:           line.input,
		})
	}
	return items
}

func (s *CartService) load(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart := models.Cart{UserID: userID}
	err := s.db.WithContext(ctx).
		Where(models.Cart{UserID: userID}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Product").
		Preload("Items.Variant").
		FirstOrCreate(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// View returns the priced cart. A cart coupon that no longer validates is
// dropped from the view and from the cart.
func (s *CartService) View(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	var coupon *models.Coupon
	if cart.CouponCode != "" {
		subtotal := buildCartView(cart, nil).Subtotal
		coupon, err = s.coupons.Validate(ctx, cart.CouponCode, subtotal)
		if err != nil {
			if !isCouponRejection(err) {
				return nil, err
			}
			coupon = nil
			if err := s.db.WithContext(ctx).Model(cart).Update("coupon_code", "").Error; err != nil {
				return nil, err
			}
		}
	}

	view := buildCartView(cart, coupon)
	return &view, nil
}

func isCouponRejection(err error) bool {
	for _, target := range []error{
		ErrCouponNotFound, ErrCouponInactive, ErrCouponNotStarted, ErrCouponExpired,
		ErrCouponMinimum, ErrCouponUsageLimit, ErrCouponMisconfigured,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// AddItem adds a product, merging with an existing line for the same
// product and variant.
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, in AddCartItemInput) (*CartView, error) {
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	if _, _, err := s.findPurchasable(ctx, in.ProductID, in.VariantID); err != nil {
		return nil, err
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range cart.Items {
		item := &cart.Items[i]
		if item.ProductID == in.ProductID && sameVariant(item.VariantID, in.VariantID) {
			err := s.db.WithContext(ctx).Model(item).Update("quantity", item.Quantity+in.Quantity).Error
			if err != nil {
				return nil, err
			}
			return s.View(ctx, userID)
		}
	}

	item := models.CartItem{
		CartID:          cart.ID,
		ProductID:       in.ProductID,
		VariantID:       in.VariantID,
		Quantity:        in.Quantity,
		SelectedOptions: in.SelectedOptions,
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return s.View(ctx, userID)
}

// findPurchasable loads an active product and, when variantID is set, one
// of its active variants.
func (s *CartService) findPurchasable(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*models.Product, *models.ProductVariant, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ? AND is_active = ?", productID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProductUnavailable
		}
		return nil, nil, err
	}
	if variantID == nil {
		return &product, nil, nil
	}

	var variant models.ProductVariant
	err := s.db.WithContext(ctx).
		First(&variant, "id = ? AND product_id = ? AND is_active = ?", *variantID, product.ID, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProductUnavailable
		}
		return nil, nil, err
	}
	return &product, &variant, nil
}

// BuyNowItem prices a single product for a buy-now checkout from the
// catalog rather than from what the browser sent.
func (s *CartService) BuyNowItem(ctx context.Context, in AddCartItemInput) (*checkout.CartItem, error) {
	product, variant, err := s.findPurchasable(ctx, in.ProductID, in.VariantID)
	if err != nil {
		return nil, err
	}
	line := models.CartItem{ProductID: product.ID, Product: product, Variant: variant}

	name := product.Name
	if variant != nil && variant.Label != "" {
		name = fmt.Sprintf("%s (%s)", name, variant.Label)
	}
	return &checkout.CartItem{
		ProductID:       product.ID.String(),
		ProductName:     name,
		ProductImage:    product.FirstImage(),
		Quantity:        in.Quantity,
		SelectedOptions: in.SelectedOptions,
		Input:           linePrice(&line),
	}, nil
}

func sameVariant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// UpdateItem sets a line's quantity; below 1 removes the line.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return s.RemoveItem(ctx, userID, itemID)
	}
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cart.ID).
		Update("quantity", quantity)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("cart item: %w", ErrNotFound)
	}
	return s.View(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cart.ID).Delete(&models.CartItem{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("cart item: %w", ErrNotFound)
	}
	return s.View(ctx, userID)
}

// ApplyCoupon validates code against the cart subtotal and stores it.
func (s *CartService) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*CartView, error) {
	view, err := s.View(ctx, userID)
	if err != nil {
		return nil, err
	}
	coupon, err := s.coupons.Validate(ctx, code, view.Subtotal)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(&models.Cart{}).
		Where("user_id = ?", userID).
		Update("coupon_code", coupon.Code).Error
	if err != nil {
		return nil, err
	}
	return s.View(ctx, userID)
}

func (s *CartService) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	err := s.db.WithContext(ctx).Model(&models.Cart{}).
		Where("user_id = ?", userID).
		Update("coupon_code", "").Error
	if err != nil {
		return nil, err
	}
	return s.View(ctx, userID)
}

// ClearTx empties the user's cart inside tx.
func (s *CartService) ClearTx(tx *gorm.DB, userID uuid.UUID) error {
	var cart models.Cart
	if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return tx.Model(&cart).Update("coupon_code", "").Error
}

// ClearCart empties the cart. It is idempotent.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("%w: user id", ErrInvalidInput)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.ClearTx(tx, id)
	})
}
