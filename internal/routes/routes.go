package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/broker"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/cache"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/checkout"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/config"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/handlers"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/middleware"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/services"
)

// Services is the shared service graph behind the HTTP layer.
type Services struct {
	Addresses  *services.AddressService
	Coupons    *services.CouponService
	Carts      *services.CartService
	Orders     *services.OrderService
	Payments   *services.PaymentService
	Razorpay   *services.RazorpayClient
	Telegram   *services.TelegramService
	Superseder *services.Superseder
	Checkout   *checkout.Manager
}

// NewServices builds every service from config and the shared infrastructure.
func NewServices(db *gorm.DB, cfg *config.Config, c cache.Cache, publisher broker.Publisher) *Services {
	telegram := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat, cfg.StoreName)
	razorpay := services.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret, cfg.RazorpayBaseURL)

	coupons := services.NewCouponService(db)
	carts := services.NewCartService(db, coupons)
	orders := services.NewOrderService(db, coupons, carts, telegram, publisher)

	return &Services{
		Addresses:  services.NewAddressService(db),
		Coupons:    coupons,
		Carts:      carts,
		Orders:     orders,
		Payments:   services.NewPaymentService(db, razorpay, orders, telegram, publisher),
		Razorpay:   razorpay,
		Telegram:   telegram,
		Superseder: services.NewSuperseder(),
		Checkout:   checkout.NewManager(checkout.NewSessionStore(c, cfg.CheckoutSessionTTL), cfg.GatewayOrderTTL),
	}
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, c cache.Cache, svc *Services) {
	authHandler := handlers.NewAuthHandler(db, cfg)
	catalogHandler := handlers.NewCatalogHandler(db)
	productHandler := handlers.NewProductHandler(db, c, cfg.ProductCacheTTL, svc.Superseder)
	cartHandler := handlers.NewCartHandler(svc.Carts)
	couponHandler := handlers.NewCouponHandler(db, svc.Coupons)
	orderHandler := handlers.NewOrderHandler(svc.Orders, svc.Payments)
	razorpayHandler := handlers.NewRazorpayHandler(svc.Payments)
	paymentOptionHandler := handlers.NewPaymentOptionHandler(db, svc.Payments)
	profileHandler := handlers.NewProfileHandler(db, svc.Addresses)
	adminHandler := handlers.NewAdminHandler(db, svc.Orders)
	checkoutHandler := handlers.NewCheckoutHandler(
		svc.Checkout,
		svc.Addresses,
		svc.Coupons,
		svc.Carts,
		svc.Orders,
		svc.Payments,
		cfg.StoreName,
	)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Catalog routes
	categories := api.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/:id", catalogHandler.GetCategory)

	products := api.Group("/products")
	productHandler.RegisterProductRoutes(products)

	api.Get("/payment-options", paymentOptionHandler.ListPaymentOptions)
	api.Post("/coupons/validate", couponHandler.Validate)

	// Razorpay calls back without a bearer token; the signature is the auth.
	api.Post("/payment/webhook", middleware.RazorpayWebhookMiddleware(svc.Razorpay), razorpayHandler.Webhook)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret))

	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
	protected.Get("/profile/addresses", profileHandler.ListAddresses)
	protected.Post("/profile/addresses", profileHandler.CreateAddress)
	protected.Put("/profile/addresses/:id", profileHandler.UpdateAddress)
	protected.Delete("/profile/addresses/:id", profileHandler.DeleteAddress)

	cart := protected.Group("/cart")
	cart.Get("/", cartHandler.GetCart)
	cart.Delete("/", cartHandler.ClearCart)
	cart.Post("/items", cartHandler.AddItem)
	cart.Put("/items/:id", cartHandler.UpdateItem)
	cart.Delete("/items/:id", cartHandler.RemoveItem)
	cart.Post("/coupon", cartHandler.ApplyCoupon)
	cart.Delete("/coupon", cartHandler.RemoveCoupon)

	checkoutHandler.RegisterRoutes(protected.Group("/checkout"))

	rzp := protected.Group("/payment")
	rzp.Post("/create-order", razorpayHandler.CreateOrder)
	rzp.Post("/verify", razorpayHandler.Verify)

	// Back office
	admin := api.Group("/admin", middleware.AuthMiddleware(cfg.JWTSecret), middleware.AdminOnly())

	admin.Get("/dashboard", adminHandler.DashboardStats)
	admin.Get("/orders", adminHandler.ListAllOrders)
	admin.Get("/orders/recent", adminHandler.RecentOrders)
	admin.Get("/orders/:id", adminHandler.GetOrder)
	admin.Put("/orders/:id/status", adminHandler.UpdateOrderStatus)
	admin.Get("/gateway-payments", adminHandler.ListGatewayPayments)
	admin.Get("/users", adminHandler.ListAllUsers)

	productHandler.RegisterAdminRoutes(admin.Group("/products"))

	admin.Post("/categories", catalogHandler.CreateCategory)
	admin.Put("/categories/:id", catalogHandler.UpdateCategory)
	admin.Delete("/categories/:id", catalogHandler.DeleteCategory)

	admin.Get("/coupons", couponHandler.ListCoupons)
	admin.Post("/coupons", couponHandler.CreateCoupon)
	admin.Put("/coupons/:id", couponHandler.UpdateCoupon)
	admin.Delete("/coupons/:id", couponHandler.DeleteCoupon)

	admin.Get("/payment-options", paymentOptionHandler.ListPaymentOptions)
	admin.Post("/payment-options", paymentOptionHandler.CreatePaymentOption)
	admin.Put("/payment-options/:id", paymentOptionHandler.UpdatePaymentOption)
	admin.Delete("/payment-options/:id", paymentOptionHandler.DeletePaymentOption)
}
