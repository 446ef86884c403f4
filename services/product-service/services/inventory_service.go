package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/vietshop/backend/services/common/errors"
	"github.com/vietshop/backend/services/common/logger"
	"github.com/vietshop/backend/services/common/retry"
	"github.com/vietshop/backend/services/product-service/models"
	"github.com/vietshop/backend/services/product-service/repository"
	"go.uber.org/zap"
)

// RestoreCause selects the eligibility predicate for inventory restoration.
type RestoreCause string

const (
	CauseRefund RestoreCause = "refund"
	CauseCancel RestoreCause = "cancel"
)

// Version conflicts are expected under restoration bursts, so the retry is
// a short linear one rather than exponential.
var stockRetryPolicy = retry.Policy{
	MaxAttempts: 3,
	BaseDelay:   50 * time.Millisecond,
	Linear:      true,
	IsRetryable: func(err error) bool {
		return errors.Is(err, repository.ErrVersionConflict)
	},
}

type RestoredItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	NewStock  int    `json:"newStock"`
}

type FailedItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

// RestoreResult reports per-item outcomes. Partial restoration is still a
// success: most items restored is strictly better than none.
type RestoreResult struct {
	Success       bool           `json:"success"`
	OrderID       string         `json:"orderId"`
	Cause         RestoreCause   `json:"cause"`
	Replayed      bool           `json:"replayed,omitempty"`
	RestoredItems []RestoredItem `json:"restoredItems"`
	FailedItems   []FailedItem   `json:"failedItems,omitempty"`
}

type InventoryService struct {
	stock  repository.StockRepository
	ledger repository.InventoryLogRepository
	orders OrderClient
}

func NewInventoryService(stock repository.StockRepository, ledger repository.InventoryLogRepository, orders OrderClient) *InventoryService {
	return &InventoryService{
		stock:  stock,
		ledger: ledger,
		orders: orders,
	}
}

// RestoreInventory returns each line item's quantity of an order to stock.
// Items are processed independently: one item failing or missing never
// blocks the rest.
func (s *InventoryService) RestoreInventory(ctx context.Context, orderID string, cause RestoreCause) (*RestoreResult, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(order.Items) == 0 {
		return nil, apperrors.NewNotFound("Order has no items to restore")
	}
	if err := checkEligibility(order, cause); err != nil {
		return nil, err
	}

	// A redelivered restore must not credit stock twice. Ledger entries for
	// this order and cause mark items already restored.
	prior, err := s.ledger.FindByRef(ctx, orderID, string(cause))
	if err != nil {
		return nil, apperrors.NewInternal("Error checking restore history", err)
	}
	alreadyRestored := make(map[string]models.InventoryLog, len(prior))
	for _, e := range prior {
		alreadyRestored[e.ProductID] = e
	}

	result := &RestoreResult{
		Success:       true,
		OrderID:       orderID,
		Cause:         cause,
		RestoredItems: make([]RestoredItem, 0, len(order.Items)),
	}

	fresh := 0
	for _, item := range order.Items {
		if e, ok := alreadyRestored[item.ProductID]; ok {
			result.RestoredItems = append(result.RestoredItems, RestoredItem{
				ProductID: item.ProductID,
				Quantity:  e.Delta,
				NewStock:  e.NewStock,
			})
			continue
		}
		fresh++
		newStock, err := s.restoreItem(ctx, item, orderID, cause)
		switch {
		case err == nil:
			result.RestoredItems = append(result.RestoredItems, RestoredItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				NewStock:  newStock,
			})
		case errors.Is(err, repository.ErrNotFound):
			logger.Warn(ctx, "product missing during restore, skipping",
				zap.String("productId", item.ProductID),
				zap.String("orderId", orderID),
			)
			result.FailedItems = append(result.FailedItems, FailedItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Reason:    "product not found",
			})
		default:
			logger.Error(ctx, "failed to restore item", err,
				zap.String("productId", item.ProductID),
				zap.String("orderId", orderID),
			)
			result.FailedItems = append(result.FailedItems, FailedItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Reason:    err.Error(),
			})
		}
	}

	result.Replayed = fresh == 0 && len(prior) > 0

	logger.Info(ctx, "inventory restore finished",
		zap.String("orderId", orderID),
		zap.String("cause", string(cause)),
		zap.Bool("replayed", result.Replayed),
		zap.Int("restored", len(result.RestoredItems)),
		zap.Int("failed", len(result.FailedItems)),
	)
	return result, nil
}

func checkEligibility(order *OrderSnapshot, cause RestoreCause) error {
	switch cause {
	case CauseRefund:
		if order.PaymentStatus != "refunded" {
			return apperrors.NewValidation("Cannot restore inventory for non-refunded order")
		}
	case CauseCancel:
		if order.Status != "cancelled" || order.PaymentStatus != "unpaid" {
			return apperrors.NewValidation("Cannot restore inventory for order that is not cancelled and unpaid")
		}
	default:
		return apperrors.NewValidation(fmt.Sprintf("Unknown restore cause: %s", cause))
	}
	return nil
}

// restoreItem adds the item quantity back to stock with a compare-and-swap
// write, retrying from a fresh read on version conflict.
func (s *InventoryService) restoreItem(ctx context.Context, item OrderItem, orderID string, cause RestoreCause) (int, error) {
	var previous, current int

	err := retry.Do(ctx, "restore-"+item.ProductID, stockRetryPolicy, func(ctx context.Context) error {
		product, err := s.stock.FindByID(ctx, item.ProductID)
		if err != nil {
			return err
		}
		previous = product.Quantity
		current = product.Quantity + item.Quantity
		return s.stock.UpdateQuantity(ctx, item.ProductID, current, product.Version)
	})
	if err != nil {
		return 0, err
	}

	entry := &models.InventoryLog{
		ProductID:     item.ProductID,
		Delta:         item.Quantity,
		Source:        string(cause),
		RefID:         orderID,
		Notes:         fmt.Sprintf("Restored %d units (%s of order %s)", item.Quantity, cause, orderID),
		PreviousStock: previous,
		NewStock:      current,
		RequestID:     requestIDFrom(ctx),
	}
	if err := s.ledger.Append(ctx, entry); err != nil {
		// The stock write already landed; a missing ledger row is an audit
		// gap, not a reason to fail the restore.
		logger.Error(ctx, "failed to append inventory log", err,
			zap.String("productId", item.ProductID),
			zap.String("orderId", orderID),
		)
	}
	return current, nil
}

// AdjustStock sets a product's quantity to an absolute value through the
// same compare-and-swap path and records an admin ledger entry.
func (s *InventoryService) AdjustStock(ctx context.Context, productID string, quantity int, actorID, note string) (*models.Product, error) {
	if quantity < 0 {
		return nil, apperrors.NewValidation("Quantity cannot be negative")
	}

	var previous int
	err := retry.Do(ctx, "adjust-"+productID, stockRetryPolicy, func(ctx context.Context) error {
		product, err := s.stock.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		previous = product.Quantity
		return s.stock.UpdateQuantity(ctx, productID, quantity, product.Version)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("Product not found")
	}
	if err != nil {
		return nil, apperrors.NewInternal("Error adjusting stock", err)
	}

	entry := &models.InventoryLog{
		ProductID:     productID,
		Delta:         quantity - previous,
		Source:        models.SourceAdmin,
		RefID:         actorID,
		Notes:         note,
		PreviousStock: previous,
		NewStock:      quantity,
		RequestID:     requestIDFrom(ctx),
	}
	if err := s.ledger.Append(ctx, entry); err != nil {
		logger.Error(ctx, "failed to append inventory log", err,
			zap.String("productId", productID),
		)
	}

	return s.stock.FindByID(ctx, productID)
}

func (s *InventoryService) GetHistory(ctx context.Context, q repository.HistoryQuery) ([]models.InventoryLog, int64, error) {
	if _, err := s.stock.FindByID(ctx, q.ProductID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, apperrors.NewNotFound("Product not found")
		}
		return nil, 0, apperrors.NewInternal("Error looking up product", err)
	}
	return s.ledger.FindHistory(ctx, q)
}

var validGroupBy = map[string]bool{"hour": true, "day": true, "month": true}

func (s *InventoryService) GetStats(ctx context.Context, q repository.StatsQuery) ([]repository.StatsBucket, error) {
	if q.GroupBy == "" {
		q.GroupBy = "day"
	}
	if !validGroupBy[q.GroupBy] {
		return nil, apperrors.NewValidation("groupBy must be one of hour, day, month")
	}
	return s.ledger.Stats(ctx, q)
}

// CreateProduct seeds a stock record at version 0 and writes the initial
// restock ledger entry so the auditability invariant holds from creation.
func (s *InventoryService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == "" || product.Name == "" {
		return nil, apperrors.NewValidation("Product ID and name are required")
	}
	if product.Quantity < 0 {
		return nil, apperrors.NewValidation("Quantity cannot be negative")
	}
	product.Version = 0

	if err := s.stock.Create(ctx, product); err != nil {
		return nil, apperrors.NewInternal("Error creating product", err)
	}

	if product.Quantity > 0 {
		entry := &models.InventoryLog{
			ProductID:     product.ID,
			Delta:         product.Quantity,
			Source:        models.SourceRestock,
			Notes:         "Initial stock",
			PreviousStock: 0,
			NewStock:      product.Quantity,
			RequestID:     requestIDFrom(ctx),
		}
		if err := s.ledger.Append(ctx, entry); err != nil {
			logger.Error(ctx, "failed to append inventory log", err,
				zap.String("productId", product.ID),
			)
		}
	}
	return product, nil
}

func (s *InventoryService) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	product, err := s.stock.FindByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("Product not found")
	}
	if err != nil {
		return nil, apperrors.NewInternal("Error looking up product", err)
	}
	return product, nil
}

func requestIDFrom(ctx context.Context) string {
	if ginCtx, ok := ctx.(*gin.Context); ok {
		if v, exists := ginCtx.Get(logger.RequestIDKey); exists {
			if id, ok := v.(string); ok {
				return id
			}
		}
		return ""
	}
	if v, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		return v
	}
	return ""
}
