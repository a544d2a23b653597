package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/checkout"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
)

func sampleOrderData() checkout.OrderData {
	productID := uuid.NewString()
	return checkout.OrderData{
		CheckoutType: checkout.TypeBuyNow,
		CustomerInfo: checkout.CustomerInfo{Name: "Asha Rao", Email: "asha@example.com", Mobile: "9876543210"},
		Items: []checkout.OrderLineItem{{
			ProductID:   productID,
			ProductName: "Fire Exit Sign",
			Quantity:    2,
			Price:       150,
			MRP:         200,
			TotalPrice:  300,
		}},
		Subtotal:        300,
		ShippingCost:    50,
		Discount:        30,
		Total:           320,
		PaymentMethod:   checkout.MethodCOD,
		CouponCode:      "SAFE10",
		BillingAddress:  checkout.AddressBlock{Address: checkout.Address{ID: "b1", Name: "Asha", City: "Pune"}, FullAddress: "1 MG Road, Pune, MH - 411001"},
		ShippingAddress: checkout.AddressBlock{Address: checkout.Address{ID: "s1", Name: "Asha", City: "Pune"}, FullAddress: "1 MG Road, Pune, MH - 411001"},
	}
}

func TestValidateOrderData(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *checkout.OrderData)
		want   error
	}{
		{"Valid", func(d *checkout.OrderData) {}, nil},
		{"NoItems", func(d *checkout.OrderData) { d.Items = nil }, ErrEmptyOrder},
		{"ZeroQuantity", func(d *checkout.OrderData) { d.Items[0].Quantity = 0 }, ErrInvalidQuantity},
		{"LineTotalOff", func(d *checkout.OrderData) { d.Items[0].TotalPrice = 299 }, ErrTotalsMismatch},
		{"SubtotalOff", func(d *checkout.OrderData) { d.Subtotal = 310; d.Total = 330 }, ErrTotalsMismatch},
		{"WrongShipping", func(d *checkout.OrderData) { d.ShippingCost = 0; d.Total = 270 }, ErrTotalsMismatch},
		{"DiscountWithoutCoupon", func(d *checkout.OrderData) { d.CouponCode = "" }, ErrTotalsMismatch},
		{"TotalOff", func(d *checkout.OrderData) { d.Total = 350 }, ErrTotalsMismatch},
		{"PaiseRounding", func(d *checkout.OrderData) { d.Total = 320.005 }, nil},
		{"MissingBilling", func(d *checkout.OrderData) { d.BillingAddress.ID = "" }, ErrInvalidInput},
		{"MissingMobile", func(d *checkout.OrderData) { d.CustomerInfo.Mobile = " " }, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sampleOrderData()
			tt.mutate(&d)
			err := validateOrderData(d)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestValidateOrderData_FreeShippingAtThreshold(t *testing.T) {
	d := sampleOrderData()
	d.Items[0].Quantity = 4
	d.Items[0].Price = 125
	d.Items[0].TotalPrice = 500
	d.Subtotal = 500
	d.ShippingCost = 0
	d.Total = 470

	assert.NoError(t, validateOrderData(d))
}

func TestCheckCouponDiscount(t *testing.T) {
	percent := &models.Coupon{Code: "SAFE10", DiscountPercent: 10}
	fixed := &models.Coupon{Code: "FLAT50", DiscountAmount: 50, DiscountPercent: 10}

	assert.NoError(t, checkCouponDiscount(percent, 300, 30))
	assert.NoError(t, checkCouponDiscount(percent, 333.33, 33.33))
	assert.NoError(t, checkCouponDiscount(fixed, 300, 50))

	// A whole-subtotal discount under a 10% coupon adds up but is not granted.
	d := sampleOrderData()
	d.Items[0].Quantity = 4
	d.Items[0].Price = 250
	d.Items[0].TotalPrice = 1000
	d.Subtotal = 1000
	d.ShippingCost = 0
	d.Discount = 1000
	d.Total = 0
	require.NoError(t, validateOrderData(d))
	assert.ErrorIs(t, checkCouponDiscount(percent, d.Subtotal, d.Discount), ErrTotalsMismatch)

	assert.ErrorIs(t, checkCouponDiscount(fixed, 300, 30), ErrTotalsMismatch)
	assert.ErrorIs(t, checkCouponDiscount(percent, 300, 29.5), ErrTotalsMismatch)
}

func TestCheckLinePrices(t *testing.T) {
	d := sampleOrderData()
	productID := uuid.MustParse(d.Items[0].ProductID)
	catalog := func(price float64, variants ...models.ProductVariant) []models.Product {
		p := models.Product{Name: "Fire Exit Sign", Price: price, IsActive: true, Variants: variants}
		p.ID = productID
		return []models.Product{p}
	}

	assert.NoError(t, checkLinePrices(d.Items, catalog(150)))
	assert.NoError(t, checkLinePrices(d.Items, catalog(120)), "paying more than the floor is allowed")
	assert.NoError(t, checkLinePrices(d.Items, catalog(200, models.ProductVariant{Price: 150, IsActive: true})))
	assert.NoError(t, checkLinePrices(d.Items, catalog(149.995)))

	assert.ErrorIs(t, checkLinePrices(d.Items, catalog(151)), ErrPriceBelowCatalog)
	assert.ErrorIs(t, checkLinePrices(d.Items, catalog(200, models.ProductVariant{Price: 100}, models.ProductVariant{Price: 180, IsActive: true})), ErrPriceBelowCatalog)

	inactive := catalog(150)
	inactive[0].IsActive = false
	assert.ErrorIs(t, checkLinePrices(d.Items, inactive), ErrProductUnavailable)
	assert.ErrorIs(t, checkLinePrices(d.Items, nil), ErrProductUnavailable)

	d.Items[0].ProductID = "not-a-uuid"
	assert.ErrorIs(t, checkLinePrices(d.Items, catalog(150)), ErrProductUnavailable)
}

func TestGenerateOrderNumber(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^IPS-260314-[A-HJ-NP-Z2-9]{6}$`)

	seen := map[string]bool{}
	for range 50 {
		n := generateOrderNumber(now)
		assert.Regexp(t, pattern, n)
		seen[n] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestBuildOrder(t *testing.T) {
	userID := uuid.New()
	placedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	d := sampleOrderData()
	d.Items = append(d.Items, checkout.OrderLineItem{ProductID: "not-a-uuid", ProductName: "Helmet", Quantity: 1, Price: 10, TotalPrice: 10})

	order := buildOrder(PlaceOrderInput{UserID: userID, Data: d, GatewayOrderID: "order_X"}, placedAt)

	assert.Equal(t, userID, order.UserID)
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, "cod", order.PaymentMethod)
	assert.Equal(t, "buyNow", order.CheckoutType)
	assert.Equal(t, 320.0, order.TotalAmount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "order_X", order.GatewayOrderID)
	assert.Equal(t, "1 MG Road, Pune, MH - 411001", order.ShippingAddress.FullAddress)

	require.Len(t, order.Items, 2)
	require.NotNil(t, order.Items[0].ProductID)
	assert.Equal(t, d.Items[0].ProductID, order.Items[0].ProductID.String())
	assert.Nil(t, order.Items[1].ProductID)
	assert.Equal(t, 300.0, order.Items[0].LineTotal)
	assert.Equal(t, 200.0, order.Items[0].MRP)
}
