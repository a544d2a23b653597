package services

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/checkout"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/database"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
)

var (
	migrateOnce sync.Once
	migrateErr  error
)

// testDB opens TEST_DATABASE_URL and hands out a transaction that is rolled
// back when the test ends.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("Integration test - requires database (set TEST_DATABASE_URL)")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	migrateOnce.Do(func() { migrateErr = database.Migrate(conn) })
	require.NoError(t, migrateErr)

	tx := conn.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() { tx.Rollback() })
	return tx
}

func createUser(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	user := models.User{Name: "Asha Rao", Email: uuid.NewString() + "@example.com", Mobile: "9876543210", IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

func addressInput(tag string, def bool, street string) AddressInput {
	return AddressInput{Tag: tag, Name: "Asha", Street: street, City: "Pune", State: "MH", ZipCode: "411001", IsDefault: def}
}

func defaultShipping(list []models.Address) []string {
	var streets []string
	for _, a := range list {
		if a.Tag == models.AddressTagShipping && a.IsDefault {
			streets = append(streets, a.Street)
		}
	}
	return streets
}

func findAddress(t *testing.T, list []models.Address, street string) models.Address {
	t.Helper()
	for _, a := range list {
		if a.Street == street {
			return a
		}
	}
	t.Fatalf("address %q not in list", street)
	return models.Address{}
}

func TestAddressService_SingleBilling(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	svc := NewAddressService(db)
	userID := createUser(t, db)

	list, err := svc.Create(ctx, userID, addressInput(models.AddressTagBilling, false, "1 Billing St"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsDefault, "billing is always default")

	_, err = svc.Create(ctx, userID, addressInput(models.AddressTagBilling, false, "2 Billing St"))
	assert.ErrorIs(t, err, ErrBillingAddressExists)

	list, err = svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAddressService_ShippingDefaults(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	svc := NewAddressService(db)
	userID := createUser(t, db)

	list, err := svc.Create(ctx, userID, addressInput(models.AddressTagShipping, false, "1 First St"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1 First St"}, defaultShipping(list), "first shipping address becomes default")

	list, err = svc.Create(ctx, userID, addressInput(models.AddressTagShipping, false, "2 Second St"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1 First St"}, defaultShipping(list))

	list, err = svc.Create(ctx, userID, addressInput(models.AddressTagShipping, true, "3 Third St"))
	require.NoError(t, err)
	assert.Equal(t, []string{"3 Third St"}, defaultShipping(list), "new default un-defaults the others")

	second := findAddress(t, list, "2 Second St")
	list, err = svc.Update(ctx, userID, second.ID, addressInput(models.AddressTagShipping, true, "2 Second St"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2 Second St"}, defaultShipping(list))
}

func TestAddressService_UpdatePromotesNextDefault(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	svc := NewAddressService(db)
	userID := createUser(t, db)

	_, err := svc.Create(ctx, userID, addressInput(models.AddressTagShipping, false, "1 First St"))
	require.NoError(t, err)
	list, err := svc.Create(ctx, userID, addressInput(models.AddressTagShipping, false, "2 Second St"))
	require.NoError(t, err)

	first := findAddress(t, list, "1 First St")
	require.True(t, first.IsDefault)

	list, err = svc.Update(ctx, userID, first.ID, addressInput(models.AddressTagShipping, false, "1 First St"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2 Second St"}, defaultShipping(list))

	// The only shipping address cannot stop being default.
	only := createUser(t, db)
	list, err = svc.Create(ctx, only, addressInput(models.AddressTagShipping, true, "9 Only St"))
	require.NoError(t, err)
	list, err = svc.Update(ctx, only, list[0].ID, addressInput(models.AddressTagShipping, false, "9 Only St"))
	require.NoError(t, err)
	assert.Equal(t, []string{"9 Only St"}, defaultShipping(list))
}

func TestAddressService_DeletePromotesNextDefault(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	svc := NewAddressService(db)
	userID := createUser(t, db)

	_, err := svc.Create(ctx, userID, addressInput(models.AddressTagShipping, false, "1 First St"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, userID, addressInput(models.AddressTagShipping, false, "2 Second St"))
	require.NoError(t, err)
	list, err := svc.Create(ctx, userID, addressInput(models.AddressTagShipping, false, "3 Third St"))
	require.NoError(t, err)

	list, err = svc.Delete(ctx, userID, findAddress(t, list, "1 First St").ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, []string{"2 Second St"}, defaultShipping(list))

	_, err = svc.Delete(ctx, createUser(t, db), findAddress(t, list, "2 Second St").ID)
	assert.ErrorIs(t, err, ErrNotFound, "other users' addresses are invisible")
}

type storeFixture struct {
	db       *gorm.DB
	userID   uuid.UUID
	product  models.Product
	coupons  *CouponService
	orders   *OrderService
	payments *PaymentService
	razorpay *RazorpayClient
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()
	db := testDB(t)
	coupons := NewCouponService(db)
	carts := NewCartService(db, coupons)
	orders := NewOrderService(db, coupons, carts, nil, nil)
	razorpay := NewRazorpayClient("rzp_test_key", "topsecret", "", "")
	product := models.Product{Slug: "exit-" + uuid.NewString(), Name: "Fire Exit Sign", Price: 150, IsActive: true}
	require.NoError(t, db.Create(&product).Error)
	return &storeFixture{
		db:       db,
		userID:   createUser(t, db),
		product:  product,
		coupons:  coupons,
		orders:   orders,
		payments: NewPaymentService(db, razorpay, orders, nil, nil),
		razorpay: razorpay,
	}
}

// orderData is the sample snapshot for the fixture's catalog product.
func (f *storeFixture) orderData() checkout.OrderData {
	d := sampleOrderData()
	d.Items[0].ProductID = f.product.ID.String()
	return d
}

func (f *storeFixture) fillCart(t *testing.T) uuid.UUID {
	t.Helper()
	cart := models.Cart{UserID: f.userID, CouponCode: "SAFE10"}
	require.NoError(t, f.db.Create(&cart).Error)
	require.NoError(t, f.db.Create(&models.CartItem{CartID: cart.ID, ProductID: f.product.ID, Quantity: 2}).Error)
	return cart.ID
}

func (f *storeFixture) createCoupon(t *testing.T, limit int) {
	t.Helper()
	coupon := models.Coupon{Code: "SAFE10", DiscountPercent: 10, UsageLimit: limit, IsActive: true}
	require.NoError(t, f.db.Create(&coupon).Error)
}

func (f *storeFixture) usedCount(t *testing.T) int {
	t.Helper()
	var coupon models.Coupon
	require.NoError(t, f.db.First(&coupon, "code = ?", "SAFE10").Error)
	return coupon.UsedCount
}

func TestOrderService_Place(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	f.createCoupon(t, 0)
	cartID := f.fillCart(t)

	order, err := f.orders.Place(ctx, PlaceOrderInput{UserID: f.userID, Data: f.orderData(), ClearCart: true})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, 1, f.usedCount(t))

	var stored models.Order
	require.NoError(t, f.db.Preload("Items").First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, order.OrderNumber, stored.OrderNumber)
	assert.Equal(t, 320.0, stored.TotalAmount)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "1 MG Road, Pune, MH - 411001", stored.ShippingAddress.FullAddress)

	var items int64
	require.NoError(t, f.db.Model(&models.CartItem{}).Where("cart_id = ?", cartID).Count(&items).Error)
	assert.Zero(t, items)
	var cart models.Cart
	require.NoError(t, f.db.First(&cart, "id = ?", cartID).Error)
	assert.Empty(t, cart.CouponCode)
}

func TestOrderService_PlaceRollsBack(t *testing.T) {
	countOrders := func(t *testing.T, f *storeFixture) int64 {
		var n int64
		require.NoError(t, f.db.Model(&models.Order{}).Where("user_id = ?", f.userID).Count(&n).Error)
		return n
	}

	t.Run("DiscountNotGranted", func(t *testing.T) {
		f := newStoreFixture(t)
		f.createCoupon(t, 0)
		cartID := f.fillCart(t)

		d := f.orderData()
		d.Discount = 300
		d.Total = 50
		_, err := f.orders.Place(context.Background(), PlaceOrderInput{UserID: f.userID, Data: d, ClearCart: true})
		assert.ErrorIs(t, err, ErrTotalsMismatch)

		assert.Zero(t, countOrders(t, f))
		assert.Zero(t, f.usedCount(t))
		var items int64
		require.NoError(t, f.db.Model(&models.CartItem{}).Where("cart_id = ?", cartID).Count(&items).Error)
		assert.EqualValues(t, 1, items, "cart survives a rejected order")
	})

	t.Run("UnderpricedLine", func(t *testing.T) {
		f := newStoreFixture(t)
		f.createCoupon(t, 0)

		d := f.orderData()
		d.Items[0].Price = 1
		d.Items[0].TotalPrice = 2
		d.Subtotal = 2
		d.Discount = 0.2
		d.Total = 51.8
		_, err := f.orders.Place(context.Background(), PlaceOrderInput{UserID: f.userID, Data: d})
		assert.ErrorIs(t, err, ErrPriceBelowCatalog)
		assert.Zero(t, countOrders(t, f))
	})

	t.Run("UsageLimitReached", func(t *testing.T) {
		f := newStoreFixture(t)
		f.createCoupon(t, 1)

		_, err := f.orders.Place(context.Background(), PlaceOrderInput{UserID: f.userID, Data: f.orderData()})
		require.NoError(t, err)
		_, err = f.orders.Place(context.Background(), PlaceOrderInput{UserID: f.userID, Data: f.orderData()})
		assert.ErrorIs(t, err, ErrCouponUsageLimit)

		assert.EqualValues(t, 1, countOrders(t, f))
		assert.Equal(t, 1, f.usedCount(t))
	})
}

func TestPaymentService_VerifyAndPlaceIdempotent(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	f.createCoupon(t, 0)

	d := f.orderData()
	d.PaymentMethod = checkout.MethodRazorpay
	entry := models.GatewayPayment{
		Provider:       "razorpay",
		GatewayOrderID: "order_" + uuid.NewString(),
		UserID:         &f.userID,
		Amount:         ToPaise(d.Total),
		Currency:       checkout.Currency,
		Status:         models.GatewayPaymentCreated,
	}
	require.NoError(t, f.db.Create(&entry).Error)

	req := checkout.VerifyRequest{
		GatewayOrderID:   entry.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        f.razorpay.PaymentSignature(entry.GatewayOrderID, "pay_1"),
		OrderData:        d,
	}

	first, err := f.payments.VerifyAndPlace(ctx, f.userID, req)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, first.PaymentStatus)
	assert.Equal(t, "pay_1", first.GatewayPaymentID)

	second, err := f.payments.VerifyAndPlace(ctx, f.userID, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.OrderNumber, second.OrderNumber)

	var orders int64
	require.NoError(t, f.db.Model(&models.Order{}).Where("gateway_order_id = ?", entry.GatewayOrderID).Count(&orders).Error)
	assert.EqualValues(t, 1, orders)
	assert.Equal(t, 1, f.usedCount(t), "coupon counted once")

	var stored models.GatewayPayment
	require.NoError(t, f.db.First(&stored, "id = ?", entry.ID).Error)
	assert.Equal(t, models.GatewayPaymentCaptured, stored.Status)
	require.NotNil(t, stored.OrderID)
	assert.Equal(t, first.ID, *stored.OrderID)

	req.Signature = "deadbeef"
	_, err = f.payments.VerifyAndPlace(ctx, f.userID, req)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}
