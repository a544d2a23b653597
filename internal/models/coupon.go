package models

import "time"

// Coupon gives either a percentage (DiscountPercent) or a fixed rupee
// amount (DiscountAmount) off an order.
type Coupon struct {
	BaseModel
	Code            string     `gorm:"uniqueIndex" json:"code"`
	Description     string     `json:"description"`
	DiscountPercent float64    `json:"discount_percent"`
	DiscountAmount  float64    `json:"discount_amount"`
	MinOrderAmount  float64    `json:"min_order_amount"`
	UsageLimit      int        `json:"usage_limit"`
	UsedCount       int        `json:"used_count"`
	ValidFrom       *time.Time `json:"valid_from"`
	ValidUntil      *time.Time `json:"valid_until"`
	IsActive        bool       `json:"is_active"`
}
