package models

// PaymentOption is an admin-managed payment method shown at checkout.
type PaymentOption struct {
	BaseModel
	Method       string `gorm:"uniqueIndex" json:"method"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	BrandColor   string `json:"brand_color"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
}
