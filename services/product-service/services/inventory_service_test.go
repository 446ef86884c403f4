package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vietshop/backend/services/common/errors"
	"github.com/vietshop/backend/services/common/logger"
	"github.com/vietshop/backend/services/product-service/models"
	"github.com/vietshop/backend/services/product-service/repository"
	"go.uber.org/zap"
)

func init() {
	logger.Log = zap.NewNop()
}

type mockStockRepo struct {
	products map[string]*models.Product
	// beforeUpdate runs before each compare-and-swap, letting tests
	// simulate a concurrent writer sneaking in between read and write.
	beforeUpdate func(id string)
}

func newMockStockRepo(products ...*models.Product) *mockStockRepo {
	m := &mockStockRepo{products: make(map[string]*models.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockStockRepo) FindByID(ctx context.Context, id string) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockStockRepo) UpdateQuantity(ctx context.Context, id string, quantity int, version int64) error {
	if m.beforeUpdate != nil {
		m.beforeUpdate(id)
	}
	p, ok := m.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Version != version {
		return repository.ErrVersionConflict
	}
	p.Quantity = quantity
	p.Version++
	return nil
}

func (m *mockStockRepo) Create(ctx context.Context, product *models.Product) error {
	m.products[product.ID] = product
	return nil
}

type mockLedger struct {
	entries   []models.InventoryLog
	appendErr error
}

func (m *mockLedger) Append(ctx context.Context, entry *models.InventoryLog) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockLedger) FindByRef(ctx context.Context, refID, source string) ([]models.InventoryLog, error) {
	var out []models.InventoryLog
	for _, e := range m.entries {
		if e.RefID == refID && e.Source == source {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockLedger) FindHistory(ctx context.Context, q repository.HistoryQuery) ([]models.InventoryLog, int64, error) {
	var out []models.InventoryLog
	for _, e := range m.entries {
		if e.ProductID == q.ProductID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockLedger) Stats(ctx context.Context, q repository.StatsQuery) ([]repository.StatsBucket, error) {
	return nil, nil
}

type mockOrderClient struct {
	order *OrderSnapshot
	err   error
}

func (m *mockOrderClient) GetOrder(ctx context.Context, orderID string) (*OrderSnapshot, error) {
	return m.order, m.err
}

func refundedOrder(items ...OrderItem) *OrderSnapshot {
	return &OrderSnapshot{
		ID:            "order-1",
		Status:        "refunded",
		PaymentStatus: "refunded",
		Items:         items,
	}
}

func product(id string, qty int) *models.Product {
	return &models.Product{ID: id, Name: "Product " + id, Quantity: qty}
}

func TestRestoreInventory_RefundRestoresAllItems(t *testing.T) {
	stock := newMockStockRepo(product("A", 10), product("B", 5))
	ledger := &mockLedger{}
	orders := &mockOrderClient{order: refundedOrder(
		OrderItem{ProductID: "A", Quantity: 2},
		OrderItem{ProductID: "B", Quantity: 3},
	)}
	svc := NewInventoryService(stock, ledger, orders)

	result, err := svc.RestoreInventory(context.Background(), "order-1", CauseRefund)
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.RestoredItems, 2)
	assert.Empty(t, result.FailedItems)

	assert.Equal(t, 12, stock.products["A"].Quantity)
	assert.Equal(t, 8, stock.products["B"].Quantity)
	assert.Equal(t, int64(1), stock.products["A"].Version)

	require.Len(t, ledger.entries, 2)
	assert.Equal(t, models.SourceRefund, ledger.entries[0].Source)
	assert.Equal(t, "order-1", ledger.entries[0].RefID)
	assert.Equal(t, 10, ledger.entries[0].PreviousStock)
	assert.Equal(t, 12, ledger.entries[0].NewStock)
}

func TestRestoreInventory_RefundRequiresRefundedPayment(t *testing.T) {
	order := refundedOrder(OrderItem{ProductID: "A", Quantity: 1})
	order.PaymentStatus = "paid"
	svc := NewInventoryService(newMockStockRepo(product("A", 10)), &mockLedger{}, &mockOrderClient{order: order})

	_, err := svc.RestoreInventory(context.Background(), "order-1", CauseRefund)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.EqualError(t, err, "Cannot restore inventory for non-refunded order")
}

func TestRestoreInventory_CancelEligibility(t *testing.T) {
	order := &OrderSnapshot{
		ID:            "order-1",
		Status:        "cancelled",
		PaymentStatus: "unpaid",
		Items:         []OrderItem{{ProductID: "A", Quantity: 4}},
	}
	stock := newMockStockRepo(product("A", 1))
	svc := NewInventoryService(stock, &mockLedger{}, &mockOrderClient{order: order})

	result, err := svc.RestoreInventory(context.Background(), "order-1", CauseCancel)
	require.NoError(t, err)
	assert.Equal(t, 5, stock.products["A"].Quantity)
	require.Len(t, result.RestoredItems, 1)

	// Cancelled but already paid: the refund flow owns restoration.
	order.PaymentStatus = "paid"
	_, err = svc.RestoreInventory(context.Background(), "order-1", CauseCancel)
	assert.True(t, apperrors.IsValidation(err))
}

func TestRestoreInventory_OrderWithoutItems(t *testing.T) {
	svc := NewInventoryService(newMockStockRepo(), &mockLedger{}, &mockOrderClient{order: refundedOrder()})

	_, err := svc.RestoreInventory(context.Background(), "order-1", CauseRefund)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRestoreInventory_OrderFetchErrorPropagates(t *testing.T) {
	svc := NewInventoryService(newMockStockRepo(), &mockLedger{}, &mockOrderClient{err: apperrors.NewNotFound("Order not found")})

	_, err := svc.RestoreInventory(context.Background(), "order-1", CauseRefund)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRestoreInventory_MissingProductSkipped(t *testing.T) {
	stock := newMockStockRepo(product("A", 10))
	ledger := &mockLedger{}
	orders := &mockOrderClient{order: refundedOrder(
		OrderItem{ProductID: "A", Quantity: 2},
		OrderItem{ProductID: "GONE", Quantity: 1},
	)}
	svc := NewInventoryService(stock, ledger, orders)

	result, err := svc.RestoreInventory(context.Background(), "order-1", CauseRefund)
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.RestoredItems, 1)
	assert.Equal(t, "A", result.RestoredItems[0].ProductID)
	require.Len(t, result.FailedItems, 1)
	assert.Equal(t, "GONE", result.FailedItems[0].ProductID)
	assert.Equal(t, "product not found", result.FailedItems[0].Reason)
	assert.Len(t, ledger.entries, 1)
}

func TestRestoreInventory_ReplayDoesNotDoubleCredit(t *testing.T) {
	stock := newMockStockRepo(product("A", 10))
	ledger := &mockLedger{}
	orders := &mockOrderClient{order: refundedOrder(OrderItem{ProductID: "A", Quantity: 2})}
	svc := NewInventoryService(stock, ledger, orders)

	first, err := svc.RestoreInventory(context.Background(), "order-1", CauseRefund)
	require.NoError(t, err)
	assert.Equal(t, 12, stock.products["A"].Quantity)
	assert.False(t, first.Replayed)

	// The order still reads as refunded, so a redelivered request passes
	// eligibility; only the ledger guard stops a second credit.
	second, err := svc.RestoreInventory(context.Background(), "order-1", CauseRefund)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, 12, stock.products["A"].Quantity)
	assert.Equal(t, int64(1), stock.products["A"].Version)
	assert.Len(t, ledger.entries, 1)

	// The replay reports the same outcome as the original call.
	require.Len(t, second.RestoredItems, 1)
	assert.Equal(t, first.RestoredItems[0], second.RestoredItems[0])
}

func TestRestoreInventory_ReplayCompletesPartialRestore(t *testing.T) {
	stock := newMockStockRepo(product("A", 10), product("B", 5))
	ledger := &mockLedger{}
	orders := &mockOrderClient{order: refundedOrder(
		OrderItem{ProductID: "A", Quantity: 2},
		OrderItem{ProductID: "B", Quantity: 3},
	)}
	svc := NewInventoryService(stock, ledger, orders)

	// B stays contended through the first call, so only A lands.
	stock.beforeUpdate = func(id string) {
		if id == "B" {
			stock.products["B"].Version++
		}
	}
	first, err := svc.RestoreInventory(context.Background(), "order-1", CauseRefund)
	require.NoError(t, err)
	require.Len(t, first.FailedItems, 1)

	// The retry restores B without crediting A again.
	stock.beforeUpdate = nil
	second, err := svc.RestoreInventory(context.Background(), "order-1", CauseRefund)
	require.NoError(t, err)

	assert.False(t, second.Replayed)
	require.Len(t, second.RestoredItems, 2)
	assert.Empty(t, second.FailedItems)
	assert.Equal(t, 12, stock.products["A"].Quantity)
	assert.Equal(t, 8, stock.products["B"].Quantity)
	assert.Len(t, ledger.entries, 2)
}

func TestRestoreInventory_VersionConflictRetried(t *testing.T) {
	stock := newMockStockRepo(product("A", 10))
	ledger := &mockLedger{}
	orders := &mockOrderClient{order: refundedOrder(OrderItem{ProductID: "A", Quantity: 2})}
	svc := NewInventoryService(stock, ledger, orders)

	// A concurrent restore lands between our read and our write: the first
	// attempt must conflict and the retry must see the new state.
	interfered := false
	stock.beforeUpdate = func(id string) {
		if !interfered {
			interfered = true
			stock.products["A"].Quantity += 3
			stock.products["A"].Version++
		}
	}

	result, err := svc.RestoreInventory(context.Background(), "order-1", CauseRefund)
	require.NoError(t, err)

	// Both quantities applied, neither lost.
	assert.Equal(t, 10+3+2, stock.products["A"].Quantity)
	require.Len(t, result.RestoredItems, 1)
	assert.Equal(t, 15, result.RestoredItems[0].NewStock)

	require.Len(t, ledger.entries, 1)
	assert.Equal(t, 13, ledger.entries[0].PreviousStock)
	assert.Equal(t, 15, ledger.entries[0].NewStock)
}

func TestRestoreInventory_ConflictExhaustionFailsOnlyThatItem(t *testing.T) {
	stock := newMockStockRepo(product("A", 10), product("B", 5))
	ledger := &mockLedger{}
	orders := &mockOrderClient{order: refundedOrder(
		OrderItem{ProductID: "A", Quantity: 2},
		OrderItem{ProductID: "B", Quantity: 3},
	)}
	svc := NewInventoryService(stock, ledger, orders)

	// Product A stays permanently contended; B must restore regardless.
	stock.beforeUpdate = func(id string) {
		if id == "A" {
			stock.products["A"].Version++
		}
	}

	result, err := svc.RestoreInventory(context.Background(), "order-1", CauseRefund)
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.RestoredItems, 1)
	assert.Equal(t, "B", result.RestoredItems[0].ProductID)
	require.Len(t, result.FailedItems, 1)
	assert.Equal(t, "A", result.FailedItems[0].ProductID)
	assert.Equal(t, 8, stock.products["B"].Quantity)
}

func TestRestoreInventory_LedgerSumInvariant(t *testing.T) {
	stock := newMockStockRepo()
	ledger := &mockLedger{}
	orders := &mockOrderClient{}
	svc := NewInventoryService(stock, ledger, orders)

	_, err := svc.CreateProduct(context.Background(), product("A", 20))
	require.NoError(t, err)

	orders.order = refundedOrder(OrderItem{ProductID: "A", Quantity: 5})
	_, err = svc.RestoreInventory(context.Background(), "order-1", CauseRefund)
	require.NoError(t, err)

	_, err = svc.AdjustStock(context.Background(), "A", 18, "admin-1", "stocktake")
	require.NoError(t, err)

	// Initial stock plus the sum of ledger deltas must equal current stock.
	sum := 0
	for _, e := range ledger.entries {
		sum += e.Delta
	}
	assert.Equal(t, stock.products["A"].Quantity, sum)
}

func TestAdjustStock_WritesAdminEntry(t *testing.T) {
	stock := newMockStockRepo(product("A", 10))
	ledger := &mockLedger{}
	svc := NewInventoryService(stock, ledger, &mockOrderClient{})

	updated, err := svc.AdjustStock(context.Background(), "A", 4, "admin-1", "damage writeoff")
	require.NoError(t, err)

	assert.Equal(t, 4, updated.Quantity)
	require.Len(t, ledger.entries, 1)
	assert.Equal(t, models.SourceAdmin, ledger.entries[0].Source)
	assert.Equal(t, -6, ledger.entries[0].Delta)
	assert.Equal(t, "admin-1", ledger.entries[0].RefID)
}

func TestAdjustStock_RejectsNegative(t *testing.T) {
	svc := NewInventoryService(newMockStockRepo(product("A", 10)), &mockLedger{}, &mockOrderClient{})

	_, err := svc.AdjustStock(context.Background(), "A", -1, "admin-1", "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestAdjustStock_UnknownProduct(t *testing.T) {
	svc := NewInventoryService(newMockStockRepo(), &mockLedger{}, &mockOrderClient{})

	_, err := svc.AdjustStock(context.Background(), "missing", 4, "admin-1", "")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetStats_ValidatesGroupBy(t *testing.T) {
	svc := NewInventoryService(newMockStockRepo(), &mockLedger{}, &mockOrderClient{})

	_, err := svc.GetStats(context.Background(), repository.StatsQuery{GroupBy: "week"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.GetStats(context.Background(), repository.StatsQuery{GroupBy: "hour"})
	assert.NoError(t, err)
}

func TestGetHistory_UnknownProduct(t *testing.T) {
	svc := NewInventoryService(newMockStockRepo(), &mockLedger{}, &mockOrderClient{})

	_, _, err := svc.GetHistory(context.Background(), repository.HistoryQuery{ProductID: "missing"})
	assert.True(t, apperrors.IsNotFound(err))
}
