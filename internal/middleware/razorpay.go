package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/logger"
)

const RazorpaySignatureHeader = "X-Razorpay-Signature"

type webhookVerifier interface {
	VerifyWebhook(body []byte, signature string) bool
}

// RazorpayWebhookMiddleware rejects webhook calls whose signature does not
// match the raw body.
func RazorpayWebhookMiddleware(verifier webhookVerifier) fiber.Handler {
	log := logger.Named("razorpay-webhook")
	return func(c *fiber.Ctx) error {
		if !verifier.VerifyWebhook(c.Body(), c.Get(RazorpaySignatureHeader)) {
			log.Warn("webhook signature rejected", zap.String("ip", c.IP()))
			return fiber.NewError(fiber.StatusUnauthorized, "invalid webhook signature")
		}
		return c.Next()
	}
}
