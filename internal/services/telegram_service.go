package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/httpclient"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/logger"
)

const telegramAPI = "https://api.telegram.org"

// TelegramService sends back-office notifications to a Telegram chat.
type TelegramService struct {
	botToken    string
	adminChatID string
	storeName   string
	baseURL     string
	client      *http.Client
	log         *zap.Logger
}

// NewTelegramService creates a new TelegramService. An empty token or chat
// turns every send into a no-op.
func NewTelegramService(botToken, adminChatID, storeName string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		storeName:   storeName,
		baseURL:     telegramAPI,
		client:      httpclient.New("telegram", 10*time.Second),
		log:         logger.Named("telegram"),
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends an HTML message to chatID.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		s.log.Debug("bot token not configured")
		return nil
	}

	body, err := json.Marshal(telegramMessage{ChatID: chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		s.log.Debug("admin chat id not configured")
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// OrderNotification contains order data for the admin chat.
type OrderNotification struct {
	OrderNumber     string
	Items           []OrderItemNotification
	Subtotal        float64
	ShippingCost    float64
	Discount        float64
	TotalAmount     float64
	CustomerName    string
	CustomerMobile  string
	ShippingAddress string
	PaymentMethod   string
	PaymentStatus   string
	CouponCode      string
}

type OrderItemNotification struct {
	Name     string
	Quantity int
	Price    float64
}

// FormatPrice renders a rupee amount with Indian digit grouping, e.g.
// 1234567.5 becomes "₹12,34,567.50". Whole amounts drop the paise.
func FormatPrice(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	paise := int64(amount*100 + 0.5)
	whole, frac := paise/100, paise%100

	digits := fmt.Sprintf("%d", whole)
	var grouped string
	if len(digits) <= 3 {
		grouped = digits
	} else {
		head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		if head != "" {
			parts = append([]string{head}, parts...)
		}
		grouped = strings.Join(append(parts, tail), ",")
	}

	if frac == 0 {
		return fmt.Sprintf("%s₹%s", sign, grouped)
	}
	return fmt.Sprintf("%s₹%s.%02d", sign, grouped, frac)
}

func paymentMethodLabel(method string) string {
	switch method {
	case "razorpay":
		return "Razorpay (online)"
	case "cod":
		return "Cash on delivery"
	}
	return method
}

// FormatOrderMessage builds the admin chat message for a new order.
func (s *TelegramService) FormatOrderMessage(order OrderNotification) string {
	var items strings.Builder
	for i, item := range order.Items {
		fmt.Fprintf(&items, "%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			item.Name,
			item.Quantity,
			FormatPrice(item.Price),
			FormatPrice(item.Price*float64(item.Quantity)),
		)
	}

	status := "⏳ Payment pending"
	if order.PaymentStatus == "paid" {
		status = "✅ Paid"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>🛒 NEW ORDER</b>\n")
	fmt.Fprintf(&b, "<b>📋 Order:</b> %s\n", order.OrderNumber)
	fmt.Fprintf(&b, "<b>👤 Customer:</b> %s\n", order.CustomerName)
	fmt.Fprintf(&b, "<b>📞 Mobile:</b> %s\n", order.CustomerMobile)
	fmt.Fprintf(&b, "<b>📍 Ship to:</b> %s\n", order.ShippingAddress)
	fmt.Fprintf(&b, "<b>📦 Items:</b>\n%s", items.String())
	fmt.Fprintf(&b, "<b>Subtotal:</b> %s\n", FormatPrice(order.Subtotal))
	fmt.Fprintf(&b, "<b>Shipping:</b> %s\n", FormatPrice(order.ShippingCost))
	if order.Discount > 0 {
		fmt.Fprintf(&b, "<b>Discount:</b> -%s (%s)\n", FormatPrice(order.Discount), order.CouponCode)
	}
	fmt.Fprintf(&b, "<b>💰 Total:</b> %s\n", FormatPrice(order.TotalAmount))
	fmt.Fprintf(&b, "<b>💳 Payment:</b> %s\n", paymentMethodLabel(order.PaymentMethod))
	fmt.Fprintf(&b, "<b>Status:</b> %s\n", status)
	fmt.Fprintf(&b, "━━━━━━━━━━━━━━━━━━\n<i>%s</i>", s.storeName)
	return b.String()
}

// NotifyNewOrder sends the new-order message to the admin chat.
func (s *TelegramService) NotifyNewOrder(ctx context.Context, order OrderNotification) error {
	return s.SendToAdmin(ctx, s.FormatOrderMessage(order))
}

// PaymentNotification is sent when a gateway payment reaches a terminal state.
type PaymentNotification struct {
	OrderNumber      string
	GatewayOrderID   string
	GatewayPaymentID string
	Amount           float64
	Captured         bool
	Reason           string
}

func (s *TelegramService) NotifyPayment(ctx context.Context, p PaymentNotification) error {
	title := "<b>✅ PAYMENT RECEIVED</b>"
	if !p.Captured {
		title = "<b>❌ PAYMENT FAILED</b>"
	}

	var b strings.Builder
	b.WriteString(title + "\n")
	if p.OrderNumber != "" {
		fmt.Fprintf(&b, "<b>📋 Order:</b> %s\n", p.OrderNumber)
	}
	fmt.Fprintf(&b, "<b>Gateway order:</b> %s\n", p.GatewayOrderID)
	if p.GatewayPaymentID != "" {
		fmt.Fprintf(&b, "<b>Payment:</b> %s\n", p.GatewayPaymentID)
	}
	fmt.Fprintf(&b, "<b>💰 Amount:</b> %s\n", FormatPrice(p.Amount))
	if p.Reason != "" {
		fmt.Fprintf(&b, "<b>Reason:</b> %s\n", p.Reason)
	}
	fmt.Fprintf(&b, "━━━━━━━━━━━━━━━━━━\n<i>%s</i>", s.storeName)
	return s.SendToAdmin(ctx, b.String())
}
