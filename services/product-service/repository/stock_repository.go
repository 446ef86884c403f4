package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vietshop/backend/services/product-service/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound = errors.New("product not found")

	// ErrVersionConflict means the version observed at read time no longer
	// matched at write time. The caller retries from a fresh read.
	ErrVersionConflict = errors.New("stock version conflict")
)

type StockRepository interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	// UpdateQuantity writes quantity conditioned on version being
	// unchanged, incrementing it on success.
	UpdateQuantity(ctx context.Context, id string, quantity int, version int64) error
	Create(ctx context.Context, product *models.Product) error
}

type MongoStockRepository struct {
	collection *mongo.Collection
}

func NewMongoStockRepository(db *mongo.Database) *MongoStockRepository {
	return &MongoStockRepository{collection: db.Collection("products")}
}

func (r *MongoStockRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *MongoStockRepository) UpdateQuantity(ctx context.Context, id string, quantity int, version int64) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "version": version},
		bson.M{
			"$set": bson.M{"quantity": quantity, "updated_at": time.Now().UTC()},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish a concurrent write from a deleted product.
		if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Err(); errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func (r *MongoStockRepository) Create(ctx context.Context, product *models.Product) error {
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, product)
	return err
}
