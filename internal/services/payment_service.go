package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/broker"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/checkout"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/logger"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
)

// PaymentService keeps the gateway payment ledger and turns verified
// Razorpay payments into orders.
type PaymentService struct {
	db        *gorm.DB
	razorpay  *RazorpayClient
	orders    *OrderService
	telegram  *TelegramService
	publisher broker.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewPaymentService(db *gorm.DB, razorpay *RazorpayClient, orders *OrderService, telegram *TelegramService, publisher broker.Publisher) *PaymentService {
	if publisher == nil {
		publisher = broker.NopPublisher{}
	}
	return &PaymentService{
		db:        db,
		razorpay:  razorpay,
		orders:    orders,
		telegram:  telegram,
		publisher: publisher,
		log:       logger.Named("payments"),
		now:       time.Now,
	}
}

// Options lists payment options in display order.
func (s *PaymentService) Options(ctx context.Context, includeInactive bool) ([]models.PaymentOption, error) {
	query := s.db.WithContext(ctx).Order("display_order asc, name asc")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var options []models.PaymentOption
	err := query.Find(&options).Error
	return options, err
}

// MethodEnabled reports whether method has an active payment option.
func (s *PaymentService) MethodEnabled(ctx context.Context, method string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.PaymentOption{}).
		Where("method = ? AND is_active = ?", method, true).
		Count(&count).Error
	return count > 0, err
}

// CreateGatewayOrder opens a Razorpay order and records it in the ledger.
func (s *PaymentService) CreateGatewayOrder(ctx context.Context, userID uuid.UUID, req checkout.GatewayOrderRequest) (*checkout.GatewayOrder, error) {
	if !s.razorpay.Configured() {
		return nil, ErrGatewayNotConfigured
	}
	enabled, err := s.MethodEnabled(ctx, string(checkout.MethodRazorpay))
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, ErrPaymentMethodOff
	}

	amount := ToPaise(req.Amount)
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	currency := req.Currency
	if currency == "" {
		currency = checkout.Currency
	}

	order, err := s.razorpay.CreateOrder(ctx, amount, currency, req.Receipt, req.Notes)
	if err != nil {
		return nil, err
	}

	entry := models.GatewayPayment{
		Provider:       "razorpay",
		GatewayOrderID: order.ID,
		UserID:         &userID,
		Receipt:        req.Receipt,
		Amount:         order.Amount,
		Currency:       order.Currency,
		Status:         models.GatewayPaymentCreated,
		Notes:          req.Notes,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("record gateway order: %w", err)
	}

	s.log.Info("gateway order created",
		zap.String("gateway_order_id", order.ID),
		zap.Int64("amount", order.Amount),
		zap.String("receipt", req.Receipt),
	)
	return &checkout.GatewayOrder{
		ID:       order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Key:      s.razorpay.KeyID(),
	}, nil
}

// checkLedgerEntry makes sure a verify call matches what was opened.
func checkLedgerEntry(entry *models.GatewayPayment, userID uuid.UUID, data checkout.OrderData) error {
	if entry.UserID != nil && *entry.UserID != userID {
		return ErrGatewayOrderNotFound
	}
	if entry.Status == models.GatewayPaymentExpired {
		return fmt.Errorf("%w: gateway order expired", ErrInvalidInput)
	}
	if ToPaise(data.Total) != entry.Amount {
		return ErrAmountMismatch
	}
	return nil
}

func (s *PaymentService) findEntry(ctx context.Context, gatewayOrderID string) (*models.GatewayPayment, error) {
	var entry models.GatewayPayment
	err := s.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGatewayOrderNotFound
	}
	return &entry, err
}

// VerifyAndPlace checks the checkout signature and places the paid order.
// Calling it again for the same gateway order returns the same order.
func (s *PaymentService) VerifyAndPlace(ctx context.Context, userID uuid.UUID, req checkout.VerifyRequest) (*models.Order, error) {
	if !s.razorpay.VerifyPaymentSignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		s.log.Warn("payment signature mismatch", zap.String("gateway_order_id", req.GatewayOrderID))
		return nil, ErrSignatureMismatch
	}

	entry, err := s.findEntry(ctx, req.GatewayOrderID)
	if err != nil {
		return nil, err
	}
	if entry.OrderID != nil {
		var existing models.Order
		if err := s.db.WithContext(ctx).Preload("Items").First(&existing, "id = ?", *entry.OrderID).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	if err := checkLedgerEntry(entry, userID, req.OrderData); err != nil {
		return nil, err
	}

	order, err := s.orders.Place(ctx, PlaceOrderInput{
		UserID:           userID,
		Data:             req.OrderData,
		ClearCart:        req.ClearCart,
		Status:           models.OrderStatusConfirmed,
		PaymentStatus:    models.PaymentStatusPaid,
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
	})
	if err != nil {
		return nil, err
	}

	capturedAt := s.now()
	err = s.db.WithContext(ctx).Model(entry).Updates(map[string]any{
		"status":             models.GatewayPaymentCaptured,
		"gateway_payment_id": req.GatewayPaymentID,
		"order_id":           order.ID,
		"captured_at":        capturedAt,
	}).Error
	if err != nil {
		s.log.Error("ledger update after order placement failed",
			zap.String("gateway_order_id", req.GatewayOrderID),
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
	}

	s.publishUpdate(ctx, order.ID.String(), req.GatewayOrderID, req.GatewayPaymentID, models.GatewayPaymentCaptured)
	return order, nil
}

// webhookTransition maps a webhook event onto the ledger status it moves
// an entry to. ok is false when the entry should be left alone.
func webhookTransition(current, event string) (next string, ok bool) {
	switch event {
	case "payment.captured", "order.paid":
		return models.GatewayPaymentCaptured, current != models.GatewayPaymentCaptured
	case "payment.failed":
		return models.GatewayPaymentFailed, current == models.GatewayPaymentCreated
	}
	return "", false
}

// HandleWebhook applies a signed Razorpay webhook to the ledger. Unknown
// events and unknown orders are acknowledged and ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte) error {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: webhook body", ErrInvalidInput)
	}
	payment := event.Payload.Payment.Entity
	log := s.log.With(zap.String("event", event.Event), zap.String("gateway_order_id", payment.OrderID))

	if payment.OrderID == "" {
		log.Debug("webhook without order id ignored")
		return nil
	}
	entry, err := s.findEntry(ctx, payment.OrderID)
	if errors.Is(err, ErrGatewayOrderNotFound) {
		log.Warn("webhook for unknown gateway order")
		return nil
	}
	if err != nil {
		return err
	}

	next, ok := webhookTransition(entry.Status, event.Event)
	if !ok {
		log.Debug("webhook ignored", zap.String("status", entry.Status))
		return nil
	}

	updates := map[string]any{"status": next, "gateway_payment_id": payment.ID}
	if next == models.GatewayPaymentCaptured {
		updates["captured_at"] = s.now()
		updates["failure_reason"] = ""
	} else {
		updates["failure_reason"] = payment.ErrorDescription
	}
	if err := s.db.WithContext(ctx).Model(entry).Updates(updates).Error; err != nil {
		return err
	}

	orderID, orderNumber := "", ""
	if entry.OrderID != nil && next == models.GatewayPaymentCaptured {
		order, err := s.orders.MarkPaid(ctx, payment.OrderID, payment.ID)
		if err != nil {
			log.Warn("mark order paid failed", zap.Error(err))
		} else {
			orderID, orderNumber = order.ID.String(), order.OrderNumber
		}
	}
	log.Info("gateway payment updated", zap.String("status", next))

	s.publishUpdate(ctx, orderID, payment.OrderID, payment.ID, next)
	if s.telegram != nil {
		notification := PaymentNotification{
			OrderNumber:      orderNumber,
			GatewayOrderID:   payment.OrderID,
			GatewayPaymentID: payment.ID,
			Amount:           FromPaise(entry.Amount),
			Captured:         next == models.GatewayPaymentCaptured,
			Reason:           payment.ErrorDescription,
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := s.telegram.NotifyPayment(ctx, notification); err != nil {
				s.log.Warn("telegram payment notification failed", zap.Error(err))
			}
		}()
	}
	return nil
}

// ExpireStale marks gateway orders still in created state before cutoff
// as expired and returns how many were touched.
func (s *PaymentService) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.GatewayPayment{}).
		Where("status = ? AND created_at < ?", models.GatewayPaymentCreated, cutoff).
		Update("status", models.GatewayPaymentExpired)
	return res.RowsAffected, res.Error
}

func (s *PaymentService) publishUpdate(ctx context.Context, orderID, gatewayOrderID, paymentID, status string) {
	err := s.publisher.PublishPaymentUpdated(ctx, &broker.PaymentUpdatedEvent{
		OrderID:          orderID,
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: paymentID,
		Status:           status,
	})
	if err != nil {
		s.log.Warn("publish payment.updated failed", zap.String("gateway_order_id", gatewayOrderID), zap.Error(err))
	}
}
