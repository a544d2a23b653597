package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/checkout"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/logger"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/services"
)

var statusByError = []struct {
	err    error
	status int
}{
	{gorm.ErrRecordNotFound, fiber.StatusNotFound},
	{services.ErrNotFound, fiber.StatusNotFound},
	{services.ErrGatewayOrderNotFound, fiber.StatusNotFound},
	{checkout.ErrAddressNotFound, fiber.StatusNotFound},
	{checkout.ErrNoPendingPayment, fiber.StatusNotFound},

	{services.ErrBillingAddressExists, fiber.StatusConflict},
	{checkout.ErrPaymentInProgress, fiber.StatusConflict},
	{checkout.ErrGatewayOrderMismatch, fiber.StatusConflict},

	{services.ErrGatewayNotConfigured, fiber.StatusServiceUnavailable},
	{checkout.ErrWidgetUnavailable, fiber.StatusServiceUnavailable},

	{services.ErrSignatureMismatch, fiber.StatusBadRequest},
	{services.ErrAmountMismatch, fiber.StatusBadRequest},
	{services.ErrInvalidInput, fiber.StatusBadRequest},
	{services.ErrInvalidAmount, fiber.StatusBadRequest},
	{services.ErrAddressIncomplete, fiber.StatusBadRequest},
	{services.ErrInvalidAddressTag, fiber.StatusBadRequest},
	{services.ErrEmptyOrder, fiber.StatusBadRequest},
	{services.ErrTotalsMismatch, fiber.StatusBadRequest},
	{services.ErrInvalidOrderStatus, fiber.StatusBadRequest},
	{services.ErrProductUnavailable, fiber.StatusBadRequest},
	{services.ErrInvalidQuantity, fiber.StatusBadRequest},
	{services.ErrPriceBelowCatalog, fiber.StatusBadRequest},
	{services.ErrPaymentMethodOff, fiber.StatusBadRequest},
	{services.ErrCouponNotFound, fiber.StatusBadRequest},
	{services.ErrCouponInactive, fiber.StatusBadRequest},
	{services.ErrCouponNotStarted, fiber.StatusBadRequest},
	{services.ErrCouponExpired, fiber.StatusBadRequest},
	{services.ErrCouponMinimum, fiber.StatusBadRequest},
	{services.ErrCouponUsageLimit, fiber.StatusBadRequest},
	{services.ErrCouponMisconfigured, fiber.StatusBadRequest},
	{checkout.ErrBillingAddressRequired, fiber.StatusBadRequest},
	{checkout.ErrShippingAddressRequired, fiber.StatusBadRequest},
	{checkout.ErrNoItems, fiber.StatusBadRequest},
	{checkout.ErrUnsupportedPaymentMethod, fiber.StatusBadRequest},
	{checkout.ErrUnknownPaymentMethod, fiber.StatusBadRequest},
	{checkout.ErrCouponNotApplicable, fiber.StatusBadRequest},
	{checkout.ErrEmptyCouponCode, fiber.StatusBadRequest},
	{checkout.ErrIncompleteAddress, fiber.StatusBadRequest},
	{checkout.ErrInvalidStep, fiber.StatusBadRequest},
	{checkout.ErrInvalidCheckoutType, fiber.StatusBadRequest},
	{checkout.ErrMissingProduct, fiber.StatusBadRequest},
	{checkout.ErrUnknownGatewayEvent, fiber.StatusBadRequest},
}

// statusFor maps a domain error to an HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	var verr checkout.ValidationErrors
	if errors.As(err, &verr) {
		return fiber.StatusBadRequest
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return fiber.StatusInternalServerError
}

// serviceError converts a service error into a *fiber.Error.
func serviceError(err error) error {
	if err == nil {
		return nil
	}
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		return err
	}
	return fiber.NewError(status, err.Error())
}

// ErrorHandler renders every error as {"success": false, "error": ...}.
// Internal errors are logged and their text is not sent to the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		logger.Named("http").Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Any("request_id", c.Locals("requestid")),
			zap.Error(err),
		)
		message = "internal server error"
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
		"message": message,
	})
}
