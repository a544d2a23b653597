package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// OrderStatuses lists the statuses an admin may set.
var OrderStatuses = []string{
	OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
	OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
}

// AddressSnapshot is an address frozen into an order.
type AddressSnapshot struct {
	Name        string `json:"name"`
	Street      string `json:"street"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zip_code"`
	Country     string `json:"country"`
	FullAddress string `json:"full_address"`
}

type Order struct {
	BaseModel
	UserID           uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	User             *User           `json:"user,omitempty"`
	OrderNumber      string          `gorm:"uniqueIndex" json:"order_number"`
	Status           string          `gorm:"index" json:"status"`
	PaymentStatus    string          `gorm:"index" json:"payment_status"`
	PaymentMethod    string          `json:"payment_method"`
	CheckoutType     string          `json:"checkout_type"`
	PlacedAt         time.Time       `json:"placed_at"`
	Subtotal         float64         `json:"subtotal"`
	ShippingCost     float64         `json:"shipping_cost"`
	Discount         float64         `json:"discount"`
	TotalAmount      float64         `json:"total_amount"`
	Currency         string          `json:"currency"`
	CouponCode       string          `json:"coupon_code"`
	CustomerName     string          `json:"customer_name"`
	CustomerEmail    string          `json:"customer_email"`
	CustomerMobile   string          `json:"customer_mobile"`
	BillingAddress   AddressSnapshot `gorm:"serializer:json" json:"billing_address"`
	ShippingAddress  AddressSnapshot `gorm:"serializer:json" json:"shipping_address"`
	GatewayOrderID   string          `gorm:"index" json:"gateway_order_id,omitempty"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	Notes            string          `json:"notes"`
	Items            []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	BaseModel
	OrderID         uuid.UUID         `gorm:"type:uuid;index" json:"order_id"`
	ProductID       *uuid.UUID        `gorm:"type:uuid" json:"product_id"`
	ProductName     string            `json:"product_name"`
	ProductImage    string            `json:"product_image"`
	Quantity        int               `json:"quantity"`
	UnitPrice       float64           `json:"unit_price"`
	MRP             float64           `json:"mrp"`
	DiscountAmount  float64           `json:"discount_amount"`
	SelectedOptions map[string]string `gorm:"serializer:json" json:"selected_options,omitempty"`
	LineTotal       float64           `json:"line_total"`
}
