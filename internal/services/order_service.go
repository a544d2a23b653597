package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/broker"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/checkout"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/logger"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/metrics"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/pricing"
)

// OrderService persists orders placed through checkout and announces them.
type OrderService struct {
	db        *gorm.DB
	coupons   *CouponService
	carts     *CartService
	telegram  *TelegramService
	publisher broker.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewOrderService(db *gorm.DB, coupons *CouponService, carts *CartService, telegram *TelegramService, publisher broker.Publisher) *OrderService {
	if publisher == nil {
		publisher = broker.NopPublisher{}
	}
	return &OrderService{
		db:        db,
		coupons:   coupons,
		carts:     carts,
		telegram:  telegram,
		publisher: publisher,
		log:       logger.Named("orders"),
		now:       time.Now,
	}
}

// PlaceOrderInput is a checkout snapshot plus how it was paid.
type PlaceOrderInput struct {
	UserID           uuid.UUID
	Data             checkout.OrderData
	ClearCart        bool
	Status           string
	PaymentStatus    string
	GatewayOrderID   string
	GatewayPaymentID string
}

const amountTolerance = 0.01

func near(a, b float64) bool {
	return math.Abs(a-b) <= amountTolerance
}

// validateOrderData rejects snapshots whose amounts do not add up.
func validateOrderData(d checkout.OrderData) error {
	if len(d.Items) == 0 {
		return ErrEmptyOrder
	}

	var subtotal float64
	for _, item := range d.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: %s", ErrInvalidQuantity, item.ProductName)
		}
		if item.Price < 0 || !near(item.TotalPrice, item.Price*float64(item.Quantity)) {
			return fmt.Errorf("%w: line %s", ErrTotalsMismatch, item.ProductName)
		}
		subtotal += item.TotalPrice
	}

	switch {
	case !near(subtotal, d.Subtotal):
		return fmt.Errorf("%w: subtotal", ErrTotalsMismatch)
	case d.ShippingCost != checkout.ShippingFor(d.Subtotal):
		return fmt.Errorf("%w: shipping", ErrTotalsMismatch)
	case d.Discount < 0 || d.Discount > 0 && d.CouponCode == "":
		return fmt.Errorf("%w: discount", ErrTotalsMismatch)
	case !near(d.Total, d.Subtotal+d.ShippingCost-d.Discount):
		return fmt.Errorf("%w: total", ErrTotalsMismatch)
	}

	if d.BillingAddress.ID == "" || d.ShippingAddress.ID == "" {
		return fmt.Errorf("%w: billing and shipping addresses are required", ErrInvalidInput)
	}
	if strings.TrimSpace(d.CustomerInfo.Name) == "" || strings.TrimSpace(d.CustomerInfo.Mobile) == "" {
		return fmt.Errorf("%w: customer name and mobile are required", ErrInvalidInput)
	}
	return nil
}

// checkCouponDiscount makes sure the snapshot claims exactly what the
// coupon grants on its subtotal.
func checkCouponDiscount(c *models.Coupon, subtotal, discount float64) error {
	if !near(discount, CouponDiscount(c, subtotal)) {
		return fmt.Errorf("%w: discount", ErrTotalsMismatch)
	}
	return nil
}

// checkLinePrices rejects lines for unknown or inactive products and lines
// priced under the product's cheapest active price. The snapshot does not
// name a variant, so the floor is the lower of the base price and the
// variant range.
func checkLinePrices(items []checkout.OrderLineItem, products []models.Product) error {
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for _, item := range items {
		id, err := uuid.Parse(item.ProductID)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrProductUnavailable, item.ProductName)
		}
		p, ok := byID[id]
		if !ok || !p.IsActive {
			return fmt.Errorf("%w: %s", ErrProductUnavailable, item.ProductName)
		}
		floor := math.Min(ProductPrice(p).FinalPrice, ProductPriceRange(p).SaleMin)
		if item.Price < floor-amountTolerance {
			return fmt.Errorf("%w: %s", ErrPriceBelowCatalog, item.ProductName)
		}
	}
	return nil
}

func (s *OrderService) checkCatalogPrices(ctx context.Context, items []checkout.OrderLineItem) error {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if id, err := uuid.Parse(item.ProductID); err == nil {
			ids = append(ids, id)
		}
	}
	var products []models.Product
	if len(ids) > 0 {
		err := s.db.WithContext(ctx).Preload("Variants").Where("id IN ?", ids).Find(&products).Error
		if err != nil {
			return err
		}
	}
	return checkLinePrices(items, products)
}

const orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generateOrderNumber returns e.g. "IPS-260314-7KQ2ZD".
func generateOrderNumber(now time.Time) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(orderNumberAlphabet))))
		if err != nil {
			n = big.NewInt(now.UnixNano() % int64(len(orderNumberAlphabet)))
		}
		suffix[i] = orderNumberAlphabet[n.Int64()]
	}
	return fmt.Sprintf("IPS-%s-%s", now.Format("060102"), suffix)
}

func snapshotOf(b checkout.AddressBlock) models.AddressSnapshot {
	return models.AddressSnapshot{
		Name:        b.Name,
		Street:      b.Street,
		City:        b.City,
		State:       b.State,
		ZipCode:     b.ZipCode,
		Country:     b.Country,
		FullAddress: b.FullAddress,
	}
}

func buildOrder(in PlaceOrderInput, placedAt time.Time) models.Order {
	d := in.Data
	order := models.Order{
		UserID:           in.UserID,
		OrderNumber:      generateOrderNumber(placedAt),
		Status:           in.Status,
		PaymentStatus:    in.PaymentStatus,
		PaymentMethod:    string(d.PaymentMethod),
		CheckoutType:     string(d.CheckoutType),
		PlacedAt:         placedAt,
		Subtotal:         pricing.Round(d.Subtotal),
		ShippingCost:     d.ShippingCost,
		Discount:         pricing.Round(d.Discount),
		TotalAmount:      pricing.Round(d.Total),
		Currency:         checkout.Currency,
		CouponCode:       d.CouponCode,
		CustomerName:     d.CustomerInfo.Name,
		CustomerEmail:    d.CustomerInfo.Email,
		CustomerMobile:   d.CustomerInfo.Mobile,
		BillingAddress:   snapshotOf(d.BillingAddress),
		ShippingAddress:  snapshotOf(d.ShippingAddress),
		GatewayOrderID:   in.GatewayOrderID,
		GatewayPaymentID: in.GatewayPaymentID,
	}
	if order.Status == "" {
		order.Status = models.OrderStatusConfirmed
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = models.PaymentStatusPending
	}

	for _, item := range d.Items {
		line := models.OrderItem{
			ProductName:     item.ProductName,
			ProductImage:    item.ProductImage,
			Quantity:        item.Quantity,
			UnitPrice:       item.Price,
			MRP:             item.MRP,
			DiscountAmount:  item.DiscountAmount,
			SelectedOptions: item.SelectedOptions,
			LineTotal:       item.TotalPrice,
		}
		if id, err := uuid.Parse(item.ProductID); err == nil {
			line.ProductID = &id
		}
		order.Items = append(order.Items, line)
	}
	return order
}

// Place validates and persists an order. Line prices are checked against
// the catalog and the discount against the coupon. The coupon use and cart
// clear run in the same transaction; notifications go out after commit.
func (s *OrderService) Place(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	if err := validateOrderData(in.Data); err != nil {
		return nil, err
	}
	if err := s.checkCatalogPrices(ctx, in.Data.Items); err != nil {
		return nil, err
	}

	order := buildOrder(in, s.now())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		if order.CouponCode != "" {
			coupon, err := s.coupons.RedeemTx(tx, order.CouponCode, order.Subtotal)
			if err != nil {
				return fmt.Errorf("redeem coupon: %w", err)
			}
			if err := checkCouponDiscount(coupon, order.Subtotal, order.Discount); err != nil {
				return err
			}
		}
		if in.ClearCart {
			if err := s.carts.ClearTx(tx, in.UserID); err != nil {
				return fmt.Errorf("clear cart: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersPlacedTotal.WithLabelValues(order.PaymentMethod).Inc()
	s.log.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_method", order.PaymentMethod),
		zap.Float64("total", order.TotalAmount),
	)
	go s.announce(order)
	return &order, nil
}

// announce notifies the admin chat and publishes order.placed.
func (s *OrderService) announce(order models.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	items := make([]OrderItemNotification, 0, len(order.Items))
	events := make([]broker.OrderPlacedItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemNotification{Name: item.ProductName, Quantity: item.Quantity, Price: item.UnitPrice})
		ev := broker.OrderPlacedItem{Name: item.ProductName, Quantity: item.Quantity, UnitPrice: item.UnitPrice, TotalPrice: item.LineTotal}
		if item.ProductID != nil {
			ev.ProductID = item.ProductID.String()
		}
		events = append(events, ev)
	}

	if s.telegram != nil {
		err := s.telegram.NotifyNewOrder(ctx, OrderNotification{
			OrderNumber:     order.OrderNumber,
			Items:           items,
			Subtotal:        order.Subtotal,
			ShippingCost:    order.ShippingCost,
			Discount:        order.Discount,
			TotalAmount:     order.TotalAmount,
			CustomerName:    order.CustomerName,
			CustomerMobile:  order.CustomerMobile,
			ShippingAddress: order.ShippingAddress.FullAddress,
			PaymentMethod:   order.PaymentMethod,
			PaymentStatus:   order.PaymentStatus,
			CouponCode:      order.CouponCode,
		})
		if err != nil {
			s.log.Warn("telegram order notification failed", zap.String("order_number", order.OrderNumber), zap.Error(err))
		}
	}

	err := s.publisher.PublishOrderPlaced(ctx, &broker.OrderPlacedEvent{
		OrderID:       order.ID.String(),
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID.String(),
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		Total:         order.TotalAmount,
		Currency:      order.Currency,
		Items:         events,
	})
	if err != nil {
		s.log.Warn("publish order.placed failed", zap.String("order_number", order.OrderNumber), zap.Error(err))
	}
}

// ListForUser returns a page of the user's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.Preload("Items").
		Order("placed_at desc").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	return orders, total, err
}

func (s *OrderService) GetForUser(ctx context.Context, userID, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order: %w", ErrNotFound)
		}
		return nil, err
	}
	return &order, nil
}

// UpdateStatus is the admin status change.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status, paymentStatus string) (*models.Order, error) {
	updates := map[string]any{}
	if status != "" {
		if !slices.Contains(models.OrderStatuses, status) {
			return nil, ErrInvalidOrderStatus
		}
		updates["status"] = status
	}
	switch paymentStatus {
	case "":
	case models.PaymentStatusPending, models.PaymentStatusPaid, models.PaymentStatusFailed:
		updates["payment_status"] = paymentStatus
	default:
		return nil, ErrInvalidOrderStatus
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	res := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("order: %w", ErrNotFound)
	}

	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	s.log.Info("order status updated", zap.String("order_number", order.OrderNumber), zap.String("status", order.Status))
	return &order, nil
}

// MarkPaid flips a placed order to paid after a late gateway capture.
func (s *OrderService) MarkPaid(ctx context.Context, gatewayOrderID, paymentID string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order: %w", ErrNotFound)
		}
		return nil, err
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return &order, nil
	}
	err = s.db.WithContext(ctx).Model(&order).Updates(map[string]any{
		"payment_status":     models.PaymentStatusPaid,
		"gateway_payment_id": paymentID,
	}).Error
	return &order, err
}
