package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vietshop/backend/services/order-service/models"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("order not found")

// OwnerQuery selects orders for a user or an anonymous session.
type OwnerQuery struct {
	UserID    *uuid.UUID
	SessionID *string
	Status    string
	Page      int
	Limit     int
}

// AdminQuery filters the full order set.
type AdminQuery struct {
	Status   string
	UserID   *uuid.UUID
	FromDate *time.Time
	ToDate   *time.Time
	Page     int
	Limit    int
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByOwner(ctx context.Context, q OwnerQuery) ([]models.Order, int64, error)
	FindAllAdmin(ctx context.Context, q AdminQuery) ([]models.Order, int64, error)
	Save(ctx context.Context, order *models.Order) error
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// Create persists a new order, assigning the next ORD-YYYYMMDD-NNNN number.
// The same-day max read does not serialize concurrent creates, so two
// creations can compute the same number; the unique index catches the loser
// and the create is retried once with a fresh sequence.
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return createWithNumberRetry(func() error {
		return r.createOnce(ctx, order)
	})
}

func createWithNumberRetry(create func() error) error {
	err := create()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = create()
	}
	return err
}

func (r *GormOrderRepository) createOnce(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := nextOrderNumber(tx)
		if err != nil {
			return err
		}
		order.OrderNumber = number
		return tx.Create(order).Error
	})
}

func nextOrderNumber(tx *gorm.DB) (string, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var last models.Order
	sequence := 1
	err := tx.Model(&models.Order{}).
		Select("order_number").
		Where("created_at >= ?", dayStart).
		Order("created_at DESC").
		First(&last).Error
	if err == nil && last.OrderNumber != "" {
		parts := strings.Split(last.OrderNumber, "-")
		if len(parts) == 3 {
			if n, perr := strconv.Atoi(parts[2]); perr == nil {
				sequence = n + 1
			}
		}
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	return fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), sequence), nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByOwner(ctx context.Context, q OwnerQuery) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})

	if q.UserID != nil {
		query = query.Where("user_id = ?", *q.UserID)
	} else if q.SessionID != nil {
		query = query.Where("session_id = ?", *q.SessionID)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}

	return r.paginate(query, q.Page, q.Limit)
}

func (r *GormOrderRepository) FindAllAdmin(ctx context.Context, q AdminQuery) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})

	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.UserID != nil {
		query = query.Where("user_id = ?", *q.UserID)
	}
	if q.FromDate != nil {
		query = query.Where("created_at >= ?", *q.FromDate)
	}
	if q.ToDate != nil {
		// Include the whole toDate day.
		query = query.Where("created_at < ?", q.ToDate.AddDate(0, 0, 1))
	}

	return r.paginate(query, q.Page, q.Limit)
}

func (r *GormOrderRepository) paginate(query *gorm.DB, page, limit int) ([]models.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	offset := (page - 1) * limit
	if err := query.
		Preload("Items").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// Save writes the order and any new status-history rows.
func (r *GormOrderRepository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(order).Error
}
