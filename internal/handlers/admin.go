package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/services"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db     *gorm.DB
	orders *services.OrderService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, orders *services.OrderService) *AdminHandler {
	return &AdminHandler{db: db, orders: orders}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalUsers int64
	if err := h.db.Model(&models.User{}).Where("role = ?", models.RoleCustomer).Count(&totalUsers).Error; err != nil {
		return err
	}

	var totalOrders int64
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}

	var totalProducts int64
	if err := h.db.Model(&models.Product{}).Where("is_active = ?", true).Count(&totalProducts).Error; err != nil {
		return err
	}

	// Orders by status
	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	ordersByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
	}

	var paymentCounts []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("payment_method as status, count(*) as count").
		Group("payment_method").
		Scan(&paymentCounts).Error; err != nil {
		return err
	}
	ordersByPayment := make(map[string]int64)
	for _, pc := range paymentCounts {
		ordersByPayment[pc.Status] = pc.Count
	}

	// Revenue counts paid orders and undelivered cash orders that are not cancelled.
	var totalRevenue float64
	if err := h.db.Model(&models.Order{}).
		Where("status != ? AND payment_status != ?", models.OrderStatusCancelled, models.PaymentStatusFailed).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	var todayRevenue float64
	if err := h.db.Model(&models.Order{}).
		Where("status != ? AND payment_status != ? AND placed_at::date = CURRENT_DATE", models.OrderStatusCancelled, models.PaymentStatusFailed).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&todayRevenue).Error; err != nil {
		return err
	}

	var pendingGateway int64
	if err := h.db.Model(&models.GatewayPayment{}).
		Where("status = ?", models.GatewayPaymentCreated).
		Count(&pendingGateway).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":              totalUsers,
			"total_orders":             totalOrders,
			"total_products":           totalProducts,
			"total_revenue":            totalRevenue,
			"today_revenue":            todayRevenue,
			"orders_by_status":         ordersByStatus,
			"orders_by_payment_method": ordersByPayment,
			"pending_gateway_payments": pendingGateway,
		},
	})
}

// ListAllOrders returns all orders with pagination, filtering, and user info.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if paymentStatus := c.Query("payment_status"); paymentStatus != "" {
		query = query.Where("payment_status = ?", paymentStatus)
	}
	if method := c.Query("payment_method"); method != "" {
		query = query.Where("payment_method = ?", method)
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where(
			"order_number ILIKE ? OR customer_name ILIKE ? OR customer_mobile ILIKE ? OR customer_email ILIKE ?",
			q, q, q, q,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").Preload("User").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Meta(total),
	})
}

// GetOrder returns any order by ID.
func (h *AdminHandler) GetOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").Preload("User").First(&order, "id = ?", id).Error; err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

type updateOrderStatusRequest struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

// UpdateOrderStatus moves an order through fulfilment.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.UpdateStatus(c.UserContext(), id, req.Status, req.PaymentStatus)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

// ListAllUsers returns all registered users with pagination and search.
func (h *AdminHandler) ListAllUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.User{})

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ? OR mobile ILIKE ?", q, q, q)
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&users).Error; err != nil {
		return err
	}

	// Enrich users with order counts and total spent
	type userStats struct {
		UserID     uuid.UUID
		OrderCount int64
		TotalSpent float64
	}

	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	var stats []userStats
	if len(ids) > 0 {
		if err := h.db.Model(&models.Order{}).
			Select("user_id, count(*) as order_count, COALESCE(SUM(total_amount), 0) as total_spent").
			Where("user_id IN ? AND status != ?", ids, models.OrderStatusCancelled).
			Group("user_id").
			Scan(&stats).Error; err != nil {
			return err
		}
	}

	statsMap := make(map[uuid.UUID]userStats, len(stats))
	for _, s := range stats {
		statsMap[s.UserID] = s
	}

	type userWithStats struct {
		models.User
		OrderCount int64   `json:"order_count"`
		TotalSpent float64 `json:"total_spent"`
	}

	result := make([]userWithStats, len(users))
	for i, u := range users {
		result[i] = userWithStats{User: u}
		if s, ok := statsMap[u.ID]; ok {
			result[i].OrderCount = s.OrderCount
			result[i].TotalSpent = s.TotalSpent
		}
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       result,
		"pagination": pg.Meta(total),
	})
}

// RecentOrders returns the most recent 5 orders for the dashboard.
func (h *AdminHandler) RecentOrders(c *fiber.Ctx) error {
	var orders []models.Order
	if err := h.db.Preload("Items").Preload("User").
		Order("placed_at desc").
		Limit(5).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
	})
}

// ListGatewayPayments returns the Razorpay ledger, newest first.
func (h *AdminHandler) ListGatewayPayments(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.GatewayPayment{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var items []models.GatewayPayment
	if err := query.Order("created_at desc").Limit(pg.Limit).Offset(pg.Offset).Find(&items).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items, "pagination": pg.Meta(total)})
}
