package handlers

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "fire-exit-sign-a4", slugify("  Fire Exit Sign (A4) "))
	assert.Equal(t, "ppe-required", slugify("PPE -- Required!"))
	assert.Equal(t, "", slugify("***"))
}

func TestBuildProductFromRequest(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		p, err := buildProductFromRequest(productRequest{
			Name:  "Fire Exit Sign",
			Price: "249",
			MRP:   399.0,
			Variants: []variantRequest{
				{Label: "A3", Price: 349.0},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "fire-exit-sign", p.Slug)
		assert.Equal(t, 249.0, p.Price)
		require.NotNil(t, p.MRP)
		assert.Equal(t, 399.0, *p.MRP)
		assert.Nil(t, p.OriginalPrice)
		assert.Equal(t, "INR", p.Currency)
		assert.True(t, p.IsActive)
		require.Len(t, p.Variants, 1)
		assert.True(t, p.Variants[0].IsActive)
		assert.Equal(t, 349.0, p.Variants[0].Price)
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := buildProductFromRequest(productRequest{Name: "Sign", Price: -5.0})
		assert.Error(t, err)

		_, err = buildProductFromRequest(productRequest{Name: "  ", Price: 10.0})
		assert.Error(t, err)

		_, err = buildProductFromRequest(productRequest{Name: "Sign", Price: 10.0, CategoryID: "nope"})
		assert.EqualError(t, err, "invalid category_id")

		_, err = buildProductFromRequest(productRequest{
			Name:     "Sign",
			Price:    10.0,
			Variants: []variantRequest{{Label: "A3", Price: "abc"}},
		})
		assert.EqualError(t, err, "variant 1: price must be a non-negative number")
	})
}

func TestValidateCouponModel(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	tests := []struct {
		name   string
		coupon models.Coupon
		ok     bool
	}{
		{"Percent", models.Coupon{Code: " safe10 ", DiscountPercent: 10}, true},
		{"Fixed", models.Coupon{Code: "FLAT50", DiscountAmount: 50}, true},
		{"MissingCode", models.Coupon{DiscountPercent: 10}, false},
		{"PercentTooHigh", models.Coupon{Code: "X", DiscountPercent: 120}, false},
		{"NegativeMinimum", models.Coupon{Code: "X", DiscountPercent: 5, MinOrderAmount: -1}, false},
		{"NoDiscount", models.Coupon{Code: "X"}, false},
		{"WindowReversed", models.Coupon{Code: "X", DiscountPercent: 5, ValidFrom: &now, ValidUntil: &earlier}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCouponModel(&tt.coupon)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var fe *fiber.Error
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, fiber.StatusBadRequest, fe.Code)
		})
	}

	c := models.Coupon{Code: " safe10 ", DiscountPercent: 10}
	require.NoError(t, validateCouponModel(&c))
	assert.Equal(t, "SAFE10", c.Code)
}

func TestValidatePaymentOption(t *testing.T) {
	opt := models.PaymentOption{Method: " COD ", Name: "Cash on delivery"}
	require.NoError(t, validatePaymentOption(&opt))
	assert.Equal(t, "cod", opt.Method)

	assert.Error(t, validatePaymentOption(&models.PaymentOption{Method: "payme", Name: "Payme"}))
	assert.Error(t, validatePaymentOption(&models.PaymentOption{Method: "razorpay"}))
}
