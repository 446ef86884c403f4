package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vietshop/backend/services/common/errors"
	"github.com/vietshop/backend/services/common/logger"
	"github.com/vietshop/backend/services/order-service/models"
	"github.com/vietshop/backend/services/order-service/repository"
	"go.uber.org/zap"
)

func init() {
	logger.Log = zap.NewNop()
}

type mockCartClient struct {
	cart         *CartSnapshot
	cartErr      error
	converted    int
	convertErr   error
	lastUser     string
	lastSession  string
}

func (m *mockCartClient) GetActiveCart(ctx context.Context, userID, sessionID string) (*CartSnapshot, error) {
	m.lastUser, m.lastSession = userID, sessionID
	return m.cart, m.cartErr
}

func (m *mockCartClient) MarkConverted(ctx context.Context, userID, sessionID string) error {
	m.converted++
	return m.convertErr
}

type mockOrderRepo struct {
	orders    map[uuid.UUID]*models.Order
	createErr error
	seq       int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (m *mockOrderRepo) Create(ctx context.Context, order *models.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	order.ID = uuid.New()
	order.OrderNumber = fmt.Sprintf("ORD-20260828-%04d", m.seq)
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return order, nil
}

func (m *mockOrderRepo) FindByOwner(ctx context.Context, q repository.OwnerQuery) ([]models.Order, int64, error) {
	return nil, 0, nil
}

func (m *mockOrderRepo) FindAllAdmin(ctx context.Context, q repository.AdminQuery) ([]models.Order, int64, error) {
	return nil, 0, nil
}

func (m *mockOrderRepo) Save(ctx context.Context, order *models.Order) error {
	m.orders[order.ID] = order
	return nil
}

func validInput(userID *uuid.UUID, sessionID *string) CreateOrderInput {
	return CreateOrderInput{
		UserID:    userID,
		SessionID: sessionID,
		ShippingAddress: models.Address{
			FullName: "Nguyen Van A",
			Phone:    "0901234567",
			Street:   "1 Le Loi",
			City:     "Ho Chi Minh City",
		},
		ShippingMethod: "standard",
		PaymentMethod:  "VNPay",
	}
}

func TestCreateOrderFromCart_ComputesTotals(t *testing.T) {
	userID := uuid.New()
	cart := &CartSnapshot{
		Items:    []CartItem{{ProductID: "A", Name: "Widget", Price: 100000, Quantity: 2}},
		Subtotal: 200000,
	}
	cartClient := &mockCartClient{cart: cart}
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, cartClient)

	order, err := svc.CreateOrderFromCart(context.Background(), validInput(&userID, nil))
	require.NoError(t, err)

	assert.Equal(t, 200000, order.Subtotal)
	assert.Equal(t, 30000, order.ShippingCost)
	assert.Equal(t, 230000, order.TotalAmount)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PaymentUnpaid, order.PaymentStatus)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, "Order created", order.StatusHistory[0].Note)
	assert.Equal(t, 1, cartClient.converted)
}

func TestCreateOrderFromCart_ExpressShipping(t *testing.T) {
	userID := uuid.New()
	cartClient := &mockCartClient{cart: &CartSnapshot{
		Items:    []CartItem{{ProductID: "A", Price: 50000, Quantity: 1}},
		Subtotal: 50000,
		Discount: 10000,
	}}
	svc := NewOrderService(newMockOrderRepo(), cartClient)

	in := validInput(&userID, nil)
	in.ShippingMethod = "express"
	order, err := svc.CreateOrderFromCart(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 50000+50000-10000, order.TotalAmount)
}

func TestCreateOrderFromCart_RequiresOwner(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo(), &mockCartClient{})
	_, err := svc.CreateOrderFromCart(context.Background(), validInput(nil, nil))
	assert.True(t, apperrors.IsValidation(err))
}

func TestCreateOrderFromCart_CartNotFound(t *testing.T) {
	userID := uuid.New()
	cartClient := &mockCartClient{cartErr: apperrors.NewNotFound("Active cart not found")}
	svc := NewOrderService(newMockOrderRepo(), cartClient)

	_, err := svc.CreateOrderFromCart(context.Background(), validInput(&userID, nil))
	assert.True(t, apperrors.IsNotFound(err))
	assert.EqualError(t, err, "Active cart not found")
}

func TestCreateOrderFromCart_EmptyCart(t *testing.T) {
	userID := uuid.New()
	cartClient := &mockCartClient{cart: &CartSnapshot{}}
	svc := NewOrderService(newMockOrderRepo(), cartClient)

	_, err := svc.CreateOrderFromCart(context.Background(), validInput(&userID, nil))
	assert.True(t, apperrors.IsValidation(err))
	assert.EqualError(t, err, "Cart is empty")
}

func TestCreateOrderFromCart_ConvertFailureDoesNotRollBack(t *testing.T) {
	userID := uuid.New()
	cartClient := &mockCartClient{
		cart:       &CartSnapshot{Items: []CartItem{{ProductID: "A", Price: 1000, Quantity: 1}}, Subtotal: 1000},
		convertErr: errors.New("cart service down"),
	}
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, cartClient)

	order, err := svc.CreateOrderFromCart(context.Background(), validInput(&userID, nil))
	require.NoError(t, err)
	assert.Len(t, repo.orders, 1)
	assert.NotEmpty(t, order.OrderNumber)
}

func TestCreateOrderFromCart_AnonymousSession(t *testing.T) {
	sid := "sess-123"
	cartClient := &mockCartClient{cart: &CartSnapshot{
		Items:    []CartItem{{ProductID: "A", Price: 1000, Quantity: 1}},
		Subtotal: 1000,
	}}
	svc := NewOrderService(newMockOrderRepo(), cartClient)

	order, err := svc.CreateOrderFromCart(context.Background(), validInput(nil, &sid))
	require.NoError(t, err)
	assert.Nil(t, order.UserID)
	require.NotNil(t, order.SessionID)
	assert.Equal(t, sid, *order.SessionID)
}

func TestUpdateOrderStatus_AppendsHistory(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, &mockCartClient{})

	order := &models.Order{Status: models.StatusPending, PaymentStatus: models.PaymentUnpaid}
	require.NoError(t, repo.Create(context.Background(), order))
	before := len(order.StatusHistory)

	adminID := uuid.New()
	updated, err := svc.UpdateOrderStatus(context.Background(), order.ID, models.StatusConfirmed, &adminID, "checked")
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, updated.Status)
	require.Len(t, updated.StatusHistory, before+1)
	last := updated.StatusHistory[len(updated.StatusHistory)-1]
	assert.Equal(t, models.StatusConfirmed, last.Status)
	assert.Equal(t, "checked", last.Note)
}

func TestUpdateOrderStatus_InvalidStatus(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo(), &mockCartClient{})
	_, err := svc.UpdateOrderStatus(context.Background(), uuid.New(), "teleported", nil, "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpdateOrderStatus_NotFound(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo(), &mockCartClient{})
	_, err := svc.UpdateOrderStatus(context.Background(), uuid.New(), models.StatusConfirmed, nil, "")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateOrderStatus_CancelDeliveredTimestamps(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, &mockCartClient{})

	order := &models.Order{Status: models.StatusShipped, PaymentStatus: models.PaymentPaid}
	require.NoError(t, repo.Create(context.Background(), order))

	updated, err := svc.UpdateOrderStatus(context.Background(), order.ID, models.StatusDelivered, nil, "")
	require.NoError(t, err)
	assert.NotNil(t, updated.CompletedAt)
}

func TestUpdateOrderStatus_CancelPaidOrderFlagsRefund(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, &mockCartClient{})

	order := &models.Order{Status: models.StatusConfirmed, PaymentStatus: models.PaymentPaid}
	require.NoError(t, repo.Create(context.Background(), order))

	updated, err := svc.UpdateOrderStatus(context.Background(), order.ID, models.StatusCancelled, nil, "customer request")
	require.NoError(t, err)
	assert.NotNil(t, updated.CancelledAt)
	assert.Contains(t, updated.AdminNotes, "Refund may be required")
}

func TestUpdatePaymentStatus_Refunded(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, &mockCartClient{})

	order := &models.Order{Status: models.StatusConfirmed, PaymentStatus: models.PaymentPaid}
	require.NoError(t, repo.Create(context.Background(), order))
	before := len(order.StatusHistory)

	updated, err := svc.UpdatePaymentStatus(context.Background(), order.ID, models.PaymentRefunded, "refund approved")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, updated.PaymentStatus)
	assert.Equal(t, models.StatusRefunded, updated.Status)
	assert.Len(t, updated.StatusHistory, before+1)
}

func TestUpdatePaymentStatus_PaidStampsTime(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, &mockCartClient{})

	order := &models.Order{Status: models.StatusPending, PaymentStatus: models.PaymentProcessing}
	require.NoError(t, repo.Create(context.Background(), order))

	updated, err := svc.UpdatePaymentStatus(context.Background(), order.ID, models.PaymentPaid, "")
	require.NoError(t, err)
	assert.NotNil(t, updated.PaidAt)
}

func TestUpdatePaymentStatus_Invalid(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo(), &mockCartClient{})
	_, err := svc.UpdatePaymentStatus(context.Background(), uuid.New(), "gone", "")
	assert.True(t, apperrors.IsValidation(err))
}
