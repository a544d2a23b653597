package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is a printed safety product: a sign, label, tape or poster.
// OriginalPrice and MRP are both optional list prices; pricing.Normalize
// decides which one counts.
type Product struct {
	BaseModel
	Slug             string                 `gorm:"uniqueIndex" json:"slug"`
	Name             string                 `json:"name"`
	ShortDescription string                 `json:"short_description"`
	Description      string                 `json:"description"`
	Price            float64                `json:"price"`
	OriginalPrice    *float64               `json:"original_price"`
	MRP              *float64               `json:"mrp"`
	Currency         string                 `gorm:"default:INR" json:"currency"`
	Material         string                 `json:"material"`
	Images           pq.StringArray         `gorm:"type:text[]" json:"images"`
	Tags             pq.StringArray         `gorm:"type:text[]" json:"tags"`
	Stock            int                    `json:"stock"`
	IsActive         bool                   `json:"is_active"`
	IsFeatured       bool                   `json:"is_featured"`
	CategoryID       *uuid.UUID             `gorm:"type:uuid;index" json:"category_id"`
	Category         *Category              `json:"category,omitempty"`
	Variants         []ProductVariant       `json:"variants,omitempty"`
	Specifications   []ProductSpecification `json:"specifications,omitempty"`
}

// ProductVariant is one size/material combination of a product.
type ProductVariant struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	SKU       string    `gorm:"index" json:"sku"`
	Label     string    `json:"label"`
	Size      string    `json:"size"`
	Material  string    `json:"material"`
	Price     float64   `json:"price"`
	MRP       *float64  `json:"mrp"`
	Stock     int       `json:"stock"`
	IsActive  bool      `json:"is_active"`
}

type ProductSpecification struct {
	BaseModel
	ProductID    uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Label        string    `json:"label"`
	Value        string    `json:"value"`
	DisplayOrder int       `json:"display_order"`
}

// FirstImage returns the cover image or "".
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
