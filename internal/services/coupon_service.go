package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/metrics"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/pricing"
)

// CouponService validates and redeems coupons.
type CouponService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCouponService(db *gorm.DB) *CouponService {
	return &CouponService{db: db, now: time.Now}
}

// NormalizeCode upper-cases and trims a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// checkCoupon applies the redemption rules to an order amount.
func checkCoupon(c *models.Coupon, orderAmount float64, now time.Time) error {
	switch {
	case !c.IsActive:
		return ErrCouponInactive
	case c.ValidFrom != nil && now.Before(*c.ValidFrom):
		return ErrCouponNotStarted
	case c.ValidUntil != nil && now.After(*c.ValidUntil):
		return ErrCouponExpired
	case c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit:
		return ErrCouponUsageLimit
	case orderAmount < c.MinOrderAmount:
		return ErrCouponMinimum
	case c.DiscountAmount <= 0 && c.DiscountPercent <= 0:
		return ErrCouponMisconfigured
	}
	return nil
}

// CouponDiscount is the rupee discount c gives on amount. A fixed amount
// wins over a percentage.
func CouponDiscount(c *models.Coupon, amount float64) float64 {
	if c.DiscountAmount > 0 {
		return pricing.Round(c.DiscountAmount)
	}
	return pricing.Round(amount * c.DiscountPercent / 100)
}

// Validate looks code up and checks it against orderAmount.
func (s *CouponService) Validate(ctx context.Context, code string, orderAmount float64) (*models.Coupon, error) {
	code = NormalizeCode(code)
	if code == "" {
		metrics.CouponValidationsTotal.WithLabelValues("empty").Inc()
		return nil, ErrCouponNotFound
	}

	var coupon models.Coupon
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.CouponValidationsTotal.WithLabelValues("not_found").Inc()
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	if err := checkCoupon(&coupon, orderAmount, s.now()); err != nil {
		metrics.CouponValidationsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	metrics.CouponValidationsTotal.WithLabelValues("accepted").Inc()
	return &coupon, nil
}

// RedeemTx counts one use of code inside tx and returns the locked coupon.
// The row is locked so the usage limit holds under concurrent checkouts.
func (s *CouponService) RedeemTx(tx *gorm.DB, code string, orderAmount float64) (*models.Coupon, error) {
	var coupon models.Coupon
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", NormalizeCode(code)).First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	if err := checkCoupon(&coupon, orderAmount, s.now()); err != nil {
		return nil, err
	}
	if err := tx.Model(&coupon).UpdateColumn("used_count", gorm.Expr("used_count + 1")).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}
