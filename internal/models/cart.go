package models

import "github.com/google/uuid"

type Cart struct {
	BaseModel
	UserID     uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	CouponCode string     `json:"coupon_code"`
	Items      []CartItem `json:"items"`
}

type CartItem struct {
	BaseModel
	CartID          uuid.UUID         `gorm:"type:uuid;index" json:"cart_id"`
	ProductID       uuid.UUID         `gorm:"type:uuid;index" json:"product_id"`
	Product         *Product          `json:"product,omitempty"`
	VariantID       *uuid.UUID        `gorm:"type:uuid" json:"variant_id"`
	Variant         *ProductVariant   `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `gorm:"serializer:json" json:"selected_options,omitempty"`
}
