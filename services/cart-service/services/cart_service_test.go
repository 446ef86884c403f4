package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietshop/backend/services/cart-service/models"
	"github.com/vietshop/backend/services/cart-service/repository"
	apperrors "github.com/vietshop/backend/services/common/errors"
	"github.com/vietshop/backend/services/common/logger"
	"go.uber.org/zap"
)

func init() {
	logger.Log = zap.NewNop()
}

type mockCartRepo struct {
	carts map[string]*models.Cart
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[string]*models.Cart)}
}

func key(userID, sessionID string) string {
	if userID != "" {
		return "user:" + userID
	}
	return "session:" + sessionID
}

func (m *mockCartRepo) Get(ctx context.Context, userID, sessionID string) (*models.Cart, error) {
	cart, ok := m.carts[key(userID, sessionID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *cart
	return &cp, nil
}

func (m *mockCartRepo) Save(ctx context.Context, cart *models.Cart) error {
	m.carts[key(cart.UserID, cart.SessionID)] = cart
	return nil
}

func (m *mockCartRepo) Delete(ctx context.Context, userID, sessionID string) error {
	delete(m.carts, key(userID, sessionID))
	return nil
}

func widget(qty int) models.CartItem {
	return models.CartItem{ProductID: "A", Name: "Widget", Price: 100000, Quantity: qty}
}

func TestAddItem_CreatesCartAndComputesSubtotal(t *testing.T) {
	svc := NewCartService(newMockCartRepo())

	cart, err := svc.AddItem(context.Background(), AddItemInput{
		UserID: "user-1",
		Item:   widget(2),
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusActive, cart.Status)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 200000, cart.Subtotal)
}

func TestAddItem_MergesExistingProduct(t *testing.T) {
	svc := NewCartService(newMockCartRepo())

	_, err := svc.AddItem(context.Background(), AddItemInput{UserID: "user-1", Item: widget(1)})
	require.NoError(t, err)
	cart, err := svc.AddItem(context.Background(), AddItemInput{UserID: "user-1", Item: widget(2)})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 300000, cart.Subtotal)
}

func TestAddItem_RequiresOwner(t *testing.T) {
	svc := NewCartService(newMockCartRepo())

	_, err := svc.AddItem(context.Background(), AddItemInput{Item: widget(1)})
	assert.True(t, apperrors.IsValidation(err))
}

func TestAddItem_StartsFreshAfterConversion(t *testing.T) {
	repo := newMockCartRepo()
	svc := NewCartService(repo)

	_, err := svc.AddItem(context.Background(), AddItemInput{UserID: "user-1", Item: widget(1)})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), "user-1", "", models.StatusConverted)
	require.NoError(t, err)

	cart, err := svc.AddItem(context.Background(), AddItemInput{UserID: "user-1", Item: widget(2)})
	require.NoError(t, err)

	assert.Equal(t, models.StatusActive, cart.Status)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestGetActiveCart_NotFoundWhenConverted(t *testing.T) {
	svc := NewCartService(newMockCartRepo())

	_, err := svc.AddItem(context.Background(), AddItemInput{SessionID: "sess-1", Item: widget(1)})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), "", "sess-1", models.StatusConverted)
	require.NoError(t, err)

	_, err = svc.GetActiveCart(context.Background(), "", "sess-1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetActiveCart_Missing(t *testing.T) {
	svc := NewCartService(newMockCartRepo())

	_, err := svc.GetActiveCart(context.Background(), "user-absent", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.EqualError(t, err, "Active cart not found")
}

func TestUpdateStatus_Validation(t *testing.T) {
	svc := NewCartService(newMockCartRepo())

	_, err := svc.UpdateStatus(context.Background(), "user-1", "", "checked-out")
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.UpdateStatus(context.Background(), "user-1", "", models.StatusConverted)
	assert.True(t, apperrors.IsNotFound(err))
}
