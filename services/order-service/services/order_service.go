package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/vietshop/backend/services/common/errors"
	"github.com/vietshop/backend/services/common/logger"
	"github.com/vietshop/backend/services/order-service/models"
	"github.com/vietshop/backend/services/order-service/repository"
	"go.uber.org/zap"
)

// Shipping cost lookup by method. Unknown methods ship free.
var shippingCosts = map[string]int{
	"express":  50000,
	"standard": 30000,
}

type CreateOrderInput struct {
	UserID          *uuid.UUID
	SessionID       *string
	ShippingAddress models.Address
	ShippingMethod  string
	PaymentMethod   string
}

type OrderService struct {
	orderRepo  repository.OrderRepository
	cartClient CartClient
}

func NewOrderService(orderRepo repository.OrderRepository, cartClient CartClient) *OrderService {
	return &OrderService{
		orderRepo:  orderRepo,
		cartClient: cartClient,
	}
}

// CreateOrderFromCart snapshots the caller's active cart into a new order and
// asks the cart service to mark the cart converted. The conversion call is
// best-effort: a committed order is never rolled back because of it.
func (s *OrderService) CreateOrderFromCart(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if in.UserID == nil && in.SessionID == nil {
		return nil, apperrors.NewValidation("User ID or Session ID is required")
	}
	if in.ShippingAddress.FullName == "" || in.ShippingAddress.Street == "" || in.ShippingAddress.City == "" {
		return nil, apperrors.NewValidation("Shipping address is incomplete")
	}
	if in.ShippingMethod == "" || in.PaymentMethod == "" {
		return nil, apperrors.NewValidation("Shipping method and payment method are required")
	}

	userID, sessionID := ownerStrings(in.UserID, in.SessionID)

	cart, err := s.cartClient.GetActiveCart(ctx, userID, sessionID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("Active cart not found")
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.NewValidation("Cart is empty")
	}

	shippingCost := shippingCosts[in.ShippingMethod]
	totalAmount := cart.Subtotal + shippingCost - cart.Discount
	if totalAmount < 0 {
		return nil, apperrors.NewValidation("Order total cannot be negative")
	}

	order := &models.Order{
		UserID:    in.UserID,
		SessionID: nil,
		Customer: models.CustomerInfo{
			Name:  cart.CustomerInfo.Name,
			Email: cart.CustomerInfo.Email,
			Phone: cart.CustomerInfo.Phone,
		},
		Subtotal:        cart.Subtotal,
		ShippingCost:    shippingCost,
		Discount:        cart.Discount,
		TotalAmount:     totalAmount,
		ShippingAddress: in.ShippingAddress,
		ShippingMethod:  in.ShippingMethod,
		PaymentMethod:   in.PaymentMethod,
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentUnpaid,
		StatusHistory: []models.StatusHistory{
			{Status: models.StatusPending, Note: "Order created"},
		},
	}
	if in.UserID == nil {
		order.SessionID = in.SessionID
	}

	for _, item := range cart.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		})
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		logger.Error(ctx, "Failed to persist order", err)
		return nil, apperrors.NewInternal("Error creating order", err)
	}

	// Accepted inconsistency window: the order is durable even if the cart
	// keeps its active status. Not retried synchronously.
	if err := s.cartClient.MarkConverted(ctx, userID, sessionID); err != nil {
		logger.Warn(ctx, "Failed to mark cart converted",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	logger.Info(ctx, "Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("total_amount", order.TotalAmount),
	)
	return order, nil
}

// UpdateOrderStatus applies an admin status transition with its audit entry.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus string, actorID *uuid.UUID, note string) (*models.Order, error) {
	if !models.ValidStatus(newStatus) {
		return nil, apperrors.NewValidation(fmt.Sprintf("Invalid status: %s", newStatus))
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Order not found")
		}
		return nil, apperrors.NewInternal("Error fetching order", err)
	}

	now := time.Now()
	order.Status = newStatus
	order.StatusHistory = append(order.StatusHistory, models.StatusHistory{
		OrderID:   order.ID,
		Status:    newStatus,
		Note:      note,
		UpdatedBy: actorID,
	})

	switch newStatus {
	case models.StatusDelivered:
		order.CompletedAt = &now
	case models.StatusCancelled:
		order.CancelledAt = &now
		if order.PaymentStatus == models.PaymentPaid {
			order.AdminNotes += fmt.Sprintf("\n[%s] Order cancelled after payment. Refund may be required.", now.Format(time.RFC3339))
		}
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, apperrors.NewInternal("Error updating order status", err)
	}

	logger.Info(ctx, "Order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("status", newStatus),
	)
	return order, nil
}

// UpdatePaymentStatus is called by the payment service when a transaction
// reaches a terminal state, and by refund processing.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, paymentStatus, note string) (*models.Order, error) {
	if !models.ValidPaymentStatus(paymentStatus) {
		return nil, apperrors.NewValidation(fmt.Sprintf("Invalid payment status: %s", paymentStatus))
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Order not found")
		}
		return nil, apperrors.NewInternal("Error fetching order", err)
	}

	now := time.Now()
	order.PaymentStatus = paymentStatus

	historyStatus := order.Status
	switch paymentStatus {
	case models.PaymentPaid:
		order.PaidAt = &now
	case models.PaymentRefunded:
		order.Status = models.StatusRefunded
		historyStatus = models.StatusRefunded
	}

	if note == "" {
		note = fmt.Sprintf("Payment status changed to %s", paymentStatus)
	}
	order.StatusHistory = append(order.StatusHistory, models.StatusHistory{
		OrderID: order.ID,
		Status:  historyStatus,
		Note:    note,
	})

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, apperrors.NewInternal("Error updating payment status", err)
	}

	logger.Info(ctx, "Order payment status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("payment_status", paymentStatus),
	)
	return order, nil
}

func (s *OrderService) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Order not found")
		}
		return nil, apperrors.NewInternal("Error fetching order", err)
	}
	return order, nil
}

func (s *OrderService) GetOrdersByOwner(ctx context.Context, q repository.OwnerQuery) ([]models.Order, int64, error) {
	if q.UserID == nil && q.SessionID == nil {
		return nil, 0, apperrors.NewValidation("User ID or Session ID is required")
	}
	orders, total, err := s.orderRepo.FindByOwner(ctx, q)
	if err != nil {
		return nil, 0, apperrors.NewInternal("Error fetching orders", err)
	}
	return orders, total, nil
}

func (s *OrderService) GetOrdersForAdmin(ctx context.Context, q repository.AdminQuery) ([]models.Order, int64, error) {
	orders, total, err := s.orderRepo.FindAllAdmin(ctx, q)
	if err != nil {
		return nil, 0, apperrors.NewInternal("Error fetching orders", err)
	}
	return orders, total, nil
}

func ownerStrings(userID *uuid.UUID, sessionID *string) (string, string) {
	var u, sid string
	if userID != nil {
		u = userID.String()
	}
	if sessionID != nil {
		sid = *sessionID
	}
	return u, sid
}
