package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/httpclient"
)

// RazorpayClient talks to the Razorpay Orders API and checks the
// signatures Razorpay attaches to checkout callbacks and webhooks.
type RazorpayClient struct {
	keyID         string
	keySecret     string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

func NewRazorpayClient(keyID, keySecret, webhookSecret, baseURL string) *RazorpayClient {
	return &RazorpayClient{
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		baseURL:       strings.TrimRight(baseURL, "/"),
		client:        httpclient.New("razorpay", 15*time.Second),
	}
}

func (c *RazorpayClient) KeyID() string { return c.keyID }

func (c *RazorpayClient) Configured() bool {
	return c != nil && c.keyID != "" && c.keySecret != ""
}

// ToPaise converts a rupee amount to integer paise, rounding half away
// from zero.
func ToPaise(rupees float64) int64 {
	return decimal.NewFromFloat(rupees).Shift(2).Round(0).IntPart()
}

// FromPaise converts paise back to rupees.
func FromPaise(paise int64) float64 {
	return decimal.New(paise, -2).InexactFloat64()
}

type RazorpayOrder struct {
	ID       string            `json:"id"`
	Entity   string            `json:"entity"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Status   string            `json:"status"`
	Notes    map[string]string `json:"notes"`
}

type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// RazorpayError is the error body the API returns on 4xx/5xx.
type RazorpayError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *RazorpayError) Error() string {
	return fmt.Sprintf("razorpay: %s (%d): %s", e.Code, e.StatusCode, e.Description)
}

// CreateOrder registers an order of amountPaise with Razorpay.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*RazorpayOrder, error) {
	if !c.Configured() {
		return nil, ErrGatewayNotConfigured
	}
	if amountPaise <= 0 {
		return nil, ErrInvalidAmount
	}

	payload, err := json.Marshal(razorpayOrderRequest{
		Amount:   amountPaise,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		var envelope struct {
			Error RazorpayError `json:"error"`
		}
		_ = json.Unmarshal(body, &envelope)
		envelope.Error.StatusCode = resp.StatusCode
		if envelope.Error.Description == "" {
			envelope.Error.Description = strings.TrimSpace(string(body))
		}
		return nil, &envelope.Error
	}

	var order RazorpayOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("razorpay create order: decode: %w", err)
	}
	return &order, nil
}

func hmacHex(secret string, data []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// PaymentSignature is the signature Razorpay Checkout returns for a
// successful payment.
func (c *RazorpayClient) PaymentSignature(orderID, paymentID string) string {
	return hmacHex(c.keySecret, []byte(orderID+"|"+paymentID))
}

// VerifyPaymentSignature reports whether signature matches orderID|paymentID.
func (c *RazorpayClient) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if c.keySecret == "" || signature == "" {
		return false
	}
	expected := c.PaymentSignature(orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// VerifyWebhook checks X-Razorpay-Signature against the raw request body.
func (c *RazorpayClient) VerifyWebhook(body []byte, signature string) bool {
	if c.webhookSecret == "" || signature == "" {
		return false
	}
	expected := hmacHex(c.webhookSecret, body)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// WebhookEvent is the subset of a Razorpay webhook payload we act on.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity WebhookPayment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type WebhookPayment struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	Method           string `json:"method"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}
