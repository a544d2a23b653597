package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	GatewayPaymentCreated  = "created"
	GatewayPaymentCaptured = "captured"
	GatewayPaymentFailed   = "failed"
	GatewayPaymentExpired  = "expired"
)

// GatewayPayment records one Razorpay order from creation to a terminal
// status. Amount is in paise.
type GatewayPayment struct {
	BaseModel
	Provider         string            `gorm:"default:razorpay" json:"provider"`
	GatewayOrderID   string            `gorm:"uniqueIndex" json:"gateway_order_id"`
	GatewayPaymentID string            `gorm:"index" json:"gateway_payment_id"`
	UserID           *uuid.UUID        `gorm:"type:uuid;index" json:"user_id"`
	OrderID          *uuid.UUID        `gorm:"type:uuid;index" json:"order_id"`
	Receipt          string            `json:"receipt"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Status           string            `gorm:"index" json:"status"`
	Notes            map[string]string `gorm:"serializer:json" json:"notes,omitempty"`
	FailureReason    string            `json:"failure_reason,omitempty"`
	CapturedAt       *time.Time        `json:"captured_at"`
}
