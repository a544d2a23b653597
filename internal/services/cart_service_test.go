package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
)

func ptr(f float64) *float64 { return &f }

func TestBuildCartView(t *testing.T) {
	signID, tapeID := uuid.New(), uuid.New()
	variantID := uuid.New()
	cart := &models.Cart{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Items: []models.CartItem{
			{
				ProductID: signID,
				Quantity:  2,
				Product:   &models.Product{Name: "Fire Exit Sign", Price: 100, OriginalPrice: ptr(150), Images: []string{"exit.png"}},
			},
			{
				ProductID: tapeID,
				VariantID: &variantID,
				Quantity:  1,
				Product:   &models.Product{Name: "Floor Tape", Price: 999},
				Variant:   &models.ProductVariant{Label: "50 m", Price: 300, MRP: ptr(300)},
			},
		},
	}

	view := buildCartView(cart, nil)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "Fire Exit Sign", view.Items[0].Name)
	assert.Equal(t, "exit.png", view.Items[0].Image)
	assert.Equal(t, 50.0, view.Items[0].Pricing.DiscountAmount)
	assert.Equal(t, "Floor Tape (50 m)", view.Items[1].Name)
	assert.Equal(t, 300.0, view.Items[1].LineTotal)
	assert.Equal(t, 500.0, view.Subtotal)
	assert.Equal(t, 0.0, view.Shipping)
	assert.Equal(t, 500.0, view.Total)

	items := view.CheckoutItems()
	require.Len(t, items, 2)
	assert.Equal(t, signID.String(), items[0].ProductID)
	assert.Equal(t, 150.0, items[0].OriginalPrice)

	withCoupon := buildCartView(cart, &models.Coupon{Code: "SAFE10", DiscountPercent: 10})
	assert.Equal(t, 50.0, withCoupon.Discount)
	assert.Equal(t, 450.0, withCoupon.Total)
	assert.Equal(t, "SAFE10", withCoupon.Coupon.Code)
}

func TestSameVariant(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.True(t, sameVariant(nil, nil))
	assert.False(t, sameVariant(&a, nil))
	assert.True(t, sameVariant(&a, &a))
	assert.False(t, sameVariant(&a, &b))
}
