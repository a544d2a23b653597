package models

import "github.com/google/uuid"

const (
	AddressTagBilling  = "billing"
	AddressTagShipping = "shipping"
)

// Address is a tagged customer address. A user has at most one billing
// address and any number of shipping addresses.
type Address struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Tag       string    `gorm:"index" json:"tag"`
	Name      string    `json:"name"`
	Street    string    `json:"street"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	ZipCode   string    `json:"zip_code"`
	Country   string    `json:"country"`
	IsDefault bool      `json:"is_default"`
}
