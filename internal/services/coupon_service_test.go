package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
)

func TestCheckCoupon(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	base := func() models.Coupon {
		return models.Coupon{Code: "SAFE10", DiscountPercent: 10, IsActive: true}
	}

	tests := []struct {
		name   string
		mutate func(c *models.Coupon)
		amount float64
		want   error
	}{
		{"Valid", func(c *models.Coupon) {}, 100, nil},
		{"Inactive", func(c *models.Coupon) { c.IsActive = false }, 100, ErrCouponInactive},
		{"NotStarted", func(c *models.Coupon) { c.ValidFrom = &future }, 100, ErrCouponNotStarted},
		{"Expired", func(c *models.Coupon) { c.ValidUntil = &past }, 100, ErrCouponExpired},
		{"InWindow", func(c *models.Coupon) { c.ValidFrom = &past; c.ValidUntil = &future }, 100, nil},
		{"UsageLimit", func(c *models.Coupon) { c.UsageLimit = 5; c.UsedCount = 5 }, 100, ErrCouponUsageLimit},
		{"BelowMinimum", func(c *models.Coupon) { c.MinOrderAmount = 500 }, 499, ErrCouponMinimum},
		{"AtMinimum", func(c *models.Coupon) { c.MinOrderAmount = 500 }, 500, nil},
		{"NoDiscount", func(c *models.Coupon) { c.DiscountPercent = 0 }, 100, ErrCouponMisconfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := checkCoupon(&c, tt.amount, now)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestCouponDiscount(t *testing.T) {
	assert.Equal(t, 100.0, CouponDiscount(&models.Coupon{DiscountAmount: 100, DiscountPercent: 50}, 1000))
	assert.Equal(t, 12.35, CouponDiscount(&models.Coupon{DiscountPercent: 5}, 247))
	assert.Equal(t, "FLAT50", NormalizeCode("  flat50 "))
}
