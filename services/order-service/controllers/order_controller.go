package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/vietshop/backend/services/common/errors"
	"github.com/vietshop/backend/services/order-service/models"
	"github.com/vietshop/backend/services/order-service/repository"
	"github.com/vietshop/backend/services/order-service/services"
)

type OrderController struct {
	orderService *services.OrderService
}

func NewOrderController(orderService *services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

type createOrderRequest struct {
	ShippingAddress models.Address `json:"shippingAddress" binding:"required"`
	ShippingMethod  string         `json:"shippingMethod" binding:"required"`
	PaymentMethod   string         `json:"paymentMethod" binding:"required"`
}

// CreateOrder handles POST /api/orders. The caller identity comes from the
// X-User-ID header (set by the gateway) or the X-Session-ID header for
// anonymous checkouts.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.NewValidation("Shipping address, shipping method, and payment method are required"))
		return
	}

	userID, sessionID := ownerFromRequest(c)

	order, err := oc.orderService.CreateOrderFromCart(c, services.CreateOrderInput{
		UserID:          userID,
		SessionID:       sessionID,
		ShippingAddress: req.ShippingAddress,
		ShippingMethod:  req.ShippingMethod,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": order})
}

// GetOrderByID handles GET /api/orders/:id (also used internally by the
// payment and product services).
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.NewValidation("Invalid order ID"))
		return
	}

	order, err := oc.orderService.GetOrderByID(c, orderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

// GetOrdersByOwner handles GET /api/orders
func (oc *OrderController) GetOrdersByOwner(c *gin.Context) {
	userID, sessionID := ownerFromQuery(c)

	q := repository.OwnerQuery{
		UserID:    userID,
		SessionID: sessionID,
		Status:    c.Query("status"),
		Page:      intQuery(c, "page", 1),
		Limit:     intQuery(c, "limit", 10),
	}

	orders, total, err := oc.orderService.GetOrdersByOwner(c, q)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, paginated(orders, total, q.Page, q.Limit))
}

// GetOrdersForAdmin handles GET /api/orders/admin
func (oc *OrderController) GetOrdersForAdmin(c *gin.Context) {
	q := repository.AdminQuery{
		Status: c.Query("status"),
		Page:   intQuery(c, "page", 1),
		Limit:  intQuery(c, "limit", 10),
	}

	if raw := c.Query("user"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			apperrors.Respond(c, apperrors.NewValidation("Invalid user filter"))
			return
		}
		q.UserID = &id
	}
	if raw := c.Query("fromDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			apperrors.Respond(c, apperrors.NewValidation("Invalid fromDate, expected YYYY-MM-DD"))
			return
		}
		q.FromDate = &t
	}
	if raw := c.Query("toDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			apperrors.Respond(c, apperrors.NewValidation("Invalid toDate, expected YYYY-MM-DD"))
			return
		}
		q.ToDate = &t
	}

	orders, total, err := oc.orderService.GetOrdersForAdmin(c, q)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, paginated(orders, total, q.Page, q.Limit))
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// UpdateOrderStatus handles PUT /api/orders/:id/status (admin)
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.NewValidation("Invalid order ID"))
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.NewValidation("Status is required"))
		return
	}

	var actorID *uuid.UUID
	if raw := c.GetHeader("X-User-ID"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			actorID = &id
		}
	}

	order, err := oc.orderService.UpdateOrderStatus(c, orderID, req.Status, actorID, req.Note)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

type updatePaymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
	Note          string `json:"note"`
}

// UpdatePaymentStatus handles PUT /api/orders/:id/payment-status
func (oc *OrderController) UpdatePaymentStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.NewValidation("Invalid order ID"))
		return
	}

	var req updatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.NewValidation("Payment status is required"))
		return
	}

	order, err := oc.orderService.UpdatePaymentStatus(c, orderID, req.PaymentStatus, req.Note)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

func ownerFromRequest(c *gin.Context) (*uuid.UUID, *string) {
	if raw := c.GetHeader("X-User-ID"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			return &id, nil
		}
	}
	if sid := c.GetHeader("X-Session-ID"); sid != "" {
		return nil, &sid
	}
	return nil, nil
}

func ownerFromQuery(c *gin.Context) (*uuid.UUID, *string) {
	if raw := c.Query("userId"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			return &id, nil
		}
	}
	if sid := c.Query("sessionId"); sid != "" {
		return nil, &sid
	}
	return ownerFromRequest(c)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func paginated(orders []models.Order, total int64, page, limit int) gin.H {
	totalPages := int64(0)
	if limit > 0 {
		totalPages = (total + int64(limit) - 1) / int64(limit)
	}
	return gin.H{
		"success": true,
		"data":    orders,
		"pagination": gin.H{
			"page":        page,
			"limit":       limit,
			"totalOrders": total,
			"totalPages":  totalPages,
		},
	}
}
