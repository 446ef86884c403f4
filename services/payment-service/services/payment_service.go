package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/vietshop/backend/services/common/errors"
	"github.com/vietshop/backend/services/common/logger"
	"github.com/vietshop/backend/services/payment-service/gateway"
	"github.com/vietshop/backend/services/payment-service/kafka"
	"github.com/vietshop/backend/services/payment-service/models"
	"github.com/vietshop/backend/services/payment-service/repository"
	"go.uber.org/zap"
)

// Order states eligible for initiating an online payment.
var payableOrderStatuses = map[string]bool{
	"pending":   true,
	"confirmed": true,
}

type PaymentService struct {
	repo     repository.PaymentRepository
	orders   OrderClient
	gateways map[string]gateway.Gateway
	events   kafka.EventPublisher
}

func NewPaymentService(repo repository.PaymentRepository, orders OrderClient, gateways []gateway.Gateway, events kafka.EventPublisher) *PaymentService {
	byName := make(map[string]gateway.Gateway, len(gateways))
	for _, gw := range gateways {
		byName[gw.Name()] = gw
	}
	return &PaymentService{
		repo:     repo,
		orders:   orders,
		gateways: byName,
		events:   events,
	}
}

// OnlinePaymentResult is what the caller needs to redirect the shopper.
type OnlinePaymentResult struct {
	PaymentURL    string `json:"paymentUrl"`
	TransactionID string `json:"transactionId"`
	Amount        int    `json:"amount"`
}

// CreateOnlinePayment initiates a gateway transaction for the order. An
// existing pending payment for the same (order, method) pair is updated in
// place rather than duplicated.
func (s *PaymentService) CreateOnlinePayment(ctx context.Context, orderID uuid.UUID, method string) (*OnlinePaymentResult, error) {
	gw, ok := s.gateways[method]
	if !ok {
		return nil, apperrors.NewValidation("Unsupported payment method")
	}

	order, err := s.orders.GetOrder(ctx, orderID.String())
	if err != nil {
		return nil, err
	}
	if !payableOrderStatuses[order.Status] {
		return nil, apperrors.NewPreconditionFailed(fmt.Sprintf("Cannot process payment for order with status: %s", order.Status))
	}
	if order.PaymentStatus == "paid" {
		return nil, apperrors.NewPreconditionFailed("Order has already been paid")
	}

	amount := order.TotalAmount

	txn, err := gw.CreateTransaction(ctx, orderID.String(), amount, false)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindPending(ctx, orderID, method)
	switch {
	case err == nil:
		existing.TransactionID = &txn.TransactionID
		existing.Gateway = method
		existing.Amount = amount
		if err := s.repo.Save(ctx, existing); err != nil {
			return nil, apperrors.NewInternal("Error updating payment", err)
		}
		logger.Info(ctx, "reused pending payment",
			zap.String("orderId", orderID.String()),
			zap.String("transactionId", txn.TransactionID),
		)
	case err == repository.ErrNotFound:
		payment := &models.Payment{
			OrderID:       orderID,
			Amount:        amount,
			Method:        method,
			Status:        models.StatusPending,
			TransactionID: &txn.TransactionID,
			Gateway:       method,
		}
		if createErr := s.repo.Create(ctx, payment); createErr != nil {
			if createErr != repository.ErrDuplicateTransaction {
				return nil, apperrors.NewInternal("Error creating payment", createErr)
			}
			// Collision on transactionId: regenerate with a wider random
			// space and retry once.
			logger.Warn(ctx, "duplicate transaction id, regenerating",
				zap.String("orderId", orderID.String()),
			)
			txn, err = gw.CreateTransaction(ctx, orderID.String(), amount, true)
			if err != nil {
				return nil, err
			}
			payment.TransactionID = &txn.TransactionID
			if err := s.repo.Create(ctx, payment); err != nil {
				return nil, apperrors.NewInternal("Error creating payment", err)
			}
		}
	default:
		return nil, apperrors.NewInternal("Error looking up payment", err)
	}

	// Best-effort: the order service learns the payment is in flight. Not
	// retried; a miss is reconciled by the callback.
	if err := s.orders.NotifyPaymentStatus(ctx, orderID.String(), "processing", ""); err != nil {
		logger.Warn(ctx, "failed to update order payment status", zap.Error(err),
			zap.String("orderId", orderID.String()),
		)
	}

	s.publishEvent(ctx, models.PaymentEvent{
		Type:          models.EventPaymentCreated,
		OrderID:       orderID.String(),
		Method:        method,
		Amount:        amount,
		Status:        models.StatusPending,
		TransactionID: txn.TransactionID,
		OccurredAt:    time.Now(),
	})

	return &OnlinePaymentResult{
		PaymentURL:    txn.PaymentURL,
		TransactionID: txn.TransactionID,
		Amount:        amount,
	}, nil
}

// CreateOfflinePayment records a cash-on-delivery payment.
func (s *PaymentService) CreateOfflinePayment(ctx context.Context, orderID uuid.UUID, amount int) (*models.Payment, error) {
	if amount <= 0 {
		return nil, apperrors.NewValidation("Amount must be positive")
	}

	transactionID := fmt.Sprintf("COD-%s", uuid.NewString()[:8])
	payment := &models.Payment{
		OrderID:       orderID,
		Amount:        amount,
		Method:        models.MethodCOD,
		Status:        models.StatusPending,
		TransactionID: &transactionID,
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		if err == repository.ErrDuplicateTransaction {
			return nil, apperrors.NewConflict("Duplicate transaction ID")
		}
		return nil, apperrors.NewInternal("Error creating payment", err)
	}

	logger.Info(ctx, "created offline payment",
		zap.String("orderId", orderID.String()),
		zap.String("transactionId", transactionID),
	)
	return payment, nil
}

// CallbackOutcome reports what the callback did. Replayed means the payment
// was already terminal and nothing changed.
type CallbackOutcome struct {
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Replayed      bool   `json:"-"`
}

// HandleCallback verifies and applies a gateway callback. Replays of
// terminal outcomes are no-ops that still succeed, because gateways retry
// callbacks on non-2xx responses.
func (s *PaymentService) HandleCallback(ctx context.Context, gatewayName string, params map[string]string) (*CallbackOutcome, error) {
	gw, ok := s.gateways[gatewayName]
	if !ok {
		return nil, apperrors.NewValidation("Unsupported payment gateway")
	}

	result, err := gw.VerifyCallback(params)
	if err != nil {
		return nil, err
	}

	payment, err := s.repo.FindByTransactionID(ctx, result.TransactionID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFound("Payment not found")
		}
		return nil, apperrors.NewInternal("Error looking up payment", err)
	}

	if payment.Terminal() {
		logger.Info(ctx, "callback replay ignored",
			zap.String("transactionId", result.TransactionID),
			zap.String("status", payment.Status),
		)
		return &CallbackOutcome{
			OrderID:       payment.OrderID.String(),
			TransactionID: result.TransactionID,
			Status:        payment.Status,
			Replayed:      true,
		}, nil
	}

	newStatus := models.StatusFailed
	if result.Success {
		newStatus = models.StatusSuccess
	}
	payment.Status = newStatus
	if raw, err := json.Marshal(params); err == nil {
		rawStr := string(raw)
		payment.CallbackPayload = &rawStr
	}
	if err := s.repo.Save(ctx, payment); err != nil {
		return nil, apperrors.NewInternal("Error updating payment", err)
	}

	orderStatus := "payment_failed"
	note := fmt.Sprintf("Payment failed via %s", gatewayName)
	eventType := models.EventPaymentFailed
	if result.Success {
		orderStatus = "paid"
		note = fmt.Sprintf("Payment successful via %s", gatewayName)
		eventType = models.EventPaymentSuccess
	}

	if err := s.orders.NotifyPaymentStatus(ctx, payment.OrderID.String(), orderStatus, note); err != nil {
		logger.Warn(ctx, "failed to update order payment status", zap.Error(err),
			zap.String("orderId", payment.OrderID.String()),
		)
	}

	s.publishEvent(ctx, models.PaymentEvent{
		Type:          eventType,
		PaymentID:     payment.ID.String(),
		OrderID:       payment.OrderID.String(),
		Method:        payment.Method,
		Amount:        payment.Amount,
		Status:        newStatus,
		TransactionID: result.TransactionID,
		OccurredAt:    time.Now(),
	})

	logger.Info(ctx, "applied gateway callback",
		zap.String("transactionId", result.TransactionID),
		zap.String("status", newStatus),
	)

	return &CallbackOutcome{
		OrderID:       payment.OrderID.String(),
		TransactionID: result.TransactionID,
		Status:        newStatus,
	}, nil
}

func (s *PaymentService) GetPaymentByTransaction(ctx context.Context, transactionID string) (*models.Payment, error) {
	payment, err := s.repo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFound("Payment not found")
		}
		return nil, apperrors.NewInternal("Error looking up payment", err)
	}
	return payment, nil
}

type RefundInput struct {
	OrderID uuid.UUID
	Reason  string
	ActorID *uuid.UUID
}

// RefundPayment reverses a successful gateway payment. On gateway failure
// no local state changes; partial success is never recorded as refunded.
func (s *PaymentService) RefundPayment(ctx context.Context, in RefundInput) (*models.Payment, error) {
	payment, err := s.repo.FindSuccessByOrder(ctx, in.OrderID)
	if err != nil {
		if err != repository.ErrNotFound {
			return nil, apperrors.NewInternal("Error looking up payment", err)
		}
		refunded, scanErr := s.findRefunded(ctx, in.OrderID)
		if scanErr != nil {
			return nil, scanErr
		}
		if refunded {
			return nil, apperrors.NewConflict("This payment has already been refunded")
		}
		return nil, apperrors.NewNotFound("No successful payment found for this order")
	}

	if payment.Method == models.MethodCOD {
		return nil, apperrors.NewValidation("Cannot refund cash on delivery payment")
	}
	gw, ok := s.gateways[payment.Method]
	if !ok {
		return nil, apperrors.NewValidation(fmt.Sprintf("Unsupported payment method: %s", payment.Method))
	}

	transactionID := ""
	if payment.TransactionID != nil {
		transactionID = *payment.TransactionID
	}
	if err := gw.Refund(ctx, transactionID, payment.Amount); err != nil {
		return nil, err
	}

	now := time.Now()
	amount := payment.Amount
	payment.Status = models.StatusRefunded
	payment.RefundAmount = &amount
	payment.RefundReason = &in.Reason
	payment.RefundedAt = &now
	payment.RefundedBy = in.ActorID
	if err := s.repo.Save(ctx, payment); err != nil {
		return nil, apperrors.NewInternal("Error updating payment", err)
	}

	if err := s.orders.NotifyPaymentStatus(ctx, in.OrderID.String(), "refunded", in.Reason); err != nil {
		logger.Warn(ctx, "failed to update order payment status", zap.Error(err),
			zap.String("orderId", in.OrderID.String()),
		)
	}

	s.publishEvent(ctx, models.PaymentEvent{
		Type:          models.EventPaymentRefunded,
		PaymentID:     payment.ID.String(),
		OrderID:       in.OrderID.String(),
		Method:        payment.Method,
		Amount:        payment.Amount,
		Status:        models.StatusRefunded,
		TransactionID: transactionID,
		OccurredAt:    now,
	})

	logger.Info(ctx, "refund processed",
		zap.String("orderId", in.OrderID.String()),
		zap.String("transactionId", transactionID),
	)
	return payment, nil
}

func (s *PaymentService) findRefunded(ctx context.Context, orderID uuid.UUID) (bool, error) {
	payments, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return false, apperrors.NewInternal("Error looking up payments", err)
	}
	for _, p := range payments {
		if p.Status == models.StatusRefunded {
			return true, nil
		}
	}
	return false, nil
}

func (s *PaymentService) publishEvent(ctx context.Context, event models.PaymentEvent) {
	if s.events == nil {
		return
	}
	// Publish already logs its own failures; the payment flow never blocks
	// on the event channel.
	_ = s.events.Publish(ctx, event)
}
