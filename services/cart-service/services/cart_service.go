package services

import (
	"context"
	"errors"
	"time"

	"github.com/vietshop/backend/services/cart-service/models"
	"github.com/vietshop/backend/services/cart-service/repository"
	apperrors "github.com/vietshop/backend/services/common/errors"
	"github.com/vietshop/backend/services/common/logger"
	"go.uber.org/zap"
)

type CartService struct {
	repo repository.CartRepository
}

func NewCartService(repo repository.CartRepository) *CartService {
	return &CartService{repo: repo}
}

// GetActiveCart returns the caller's cart if it exists and is still active.
// Converted and abandoned carts look the same as no cart to the caller.
func (s *CartService) GetActiveCart(ctx context.Context, userID, sessionID string) (*models.Cart, error) {
	if userID == "" && sessionID == "" {
		return nil, apperrors.NewValidation("Either userId or sessionId is required")
	}

	cart, err := s.repo.Get(ctx, userID, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("Active cart not found")
	}
	if err != nil {
		return nil, apperrors.NewInternal("Error loading cart", err)
	}
	if cart.Status != models.StatusActive {
		return nil, apperrors.NewNotFound("Active cart not found")
	}
	return cart, nil
}

type AddItemInput struct {
	UserID       string
	SessionID    string
	Item         models.CartItem
	CustomerInfo *models.CustomerInfo
}

// AddItem appends an item to the caller's active cart, creating the cart
// on first use. Adding an already-present product increases its quantity.
func (s *CartService) AddItem(ctx context.Context, in AddItemInput) (*models.Cart, error) {
	if in.UserID == "" && in.SessionID == "" {
		return nil, apperrors.NewValidation("Either userId or sessionId is required")
	}
	if in.Item.ProductID == "" || in.Item.Quantity < 1 || in.Item.Price < 0 {
		return nil, apperrors.NewValidation("Product, positive quantity, and non-negative price are required")
	}

	cart, err := s.repo.Get(ctx, in.UserID, in.SessionID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		cart = &models.Cart{
			UserID:    in.UserID,
			SessionID: in.SessionID,
			Status:    models.StatusActive,
			CreatedAt: time.Now(),
		}
	case err != nil:
		return nil, apperrors.NewInternal("Error loading cart", err)
	case cart.Status != models.StatusActive:
		// The previous cart was converted or abandoned; start fresh.
		cart = &models.Cart{
			UserID:    in.UserID,
			SessionID: in.SessionID,
			Status:    models.StatusActive,
			CreatedAt: time.Now(),
		}
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == in.Item.ProductID {
			cart.Items[i].Quantity += in.Item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, in.Item)
	}

	if in.CustomerInfo != nil {
		cart.CustomerInfo = *in.CustomerInfo
	}
	cart.Recalculate()

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, apperrors.NewInternal("Error saving cart", err)
	}

	logger.Info(ctx, "added item to cart",
		zap.String("product", in.Item.ProductID),
		zap.Int("quantity", in.Item.Quantity),
	)
	return cart, nil
}

// UpdateStatus moves the cart to a new lifecycle status. The order service
// calls this with "converted" after checkout.
func (s *CartService) UpdateStatus(ctx context.Context, userID, sessionID, status string) (*models.Cart, error) {
	if userID == "" && sessionID == "" {
		return nil, apperrors.NewValidation("Either userId or sessionId is required")
	}
	if !models.ValidStatus(status) {
		return nil, apperrors.NewValidation("Invalid cart status")
	}

	cart, err := s.repo.Get(ctx, userID, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("Cart not found")
	}
	if err != nil {
		return nil, apperrors.NewInternal("Error loading cart", err)
	}

	cart.Status = status
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, apperrors.NewInternal("Error saving cart", err)
	}

	logger.Info(ctx, "updated cart status", zap.String("status", status))
	return cart, nil
}
