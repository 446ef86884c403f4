package repository

import (
	"context"
	"time"

	"github.com/vietshop/backend/services/product-service/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HistoryQuery filters the per-product ledger listing.
type HistoryQuery struct {
	ProductID string
	Source    string
	FromDate  *time.Time
	ToDate    *time.Time
	Page      int
	Limit     int
}

// StatsQuery controls the time-bucketed aggregation.
type StatsQuery struct {
	FromDate *time.Time
	ToDate   *time.Time
	GroupBy  string // hour, day or month
}

// StatsBucket is one aggregation row: net stock movement for a source
// within a time bucket.
type StatsBucket struct {
	Period     string `bson:"period" json:"period"`
	Source     string `bson:"source" json:"source"`
	TotalDelta int    `bson:"totalDelta" json:"totalDelta"`
	Entries    int    `bson:"entries" json:"entries"`
}

type InventoryLogRepository interface {
	Append(ctx context.Context, entry *models.InventoryLog) error
	FindByRef(ctx context.Context, refID, source string) ([]models.InventoryLog, error)
	FindHistory(ctx context.Context, q HistoryQuery) ([]models.InventoryLog, int64, error)
	Stats(ctx context.Context, q StatsQuery) ([]StatsBucket, error)
}

type MongoInventoryLogRepository struct {
	collection *mongo.Collection
}

func NewMongoInventoryLogRepository(db *mongo.Database) *MongoInventoryLogRepository {
	return &MongoInventoryLogRepository{collection: db.Collection("inventory_logs")}
}

// Append inserts one immutable ledger entry. There is no update or delete
// path on this collection.
func (r *MongoInventoryLogRepository) Append(ctx context.Context, entry *models.InventoryLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// FindByRef returns every ledger entry written for one reference and
// source, oldest first.
func (r *MongoInventoryLogRepository) FindByRef(ctx context.Context, refID, source string) ([]models.InventoryLog, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"ref_id": refID, "source": source},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.InventoryLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *MongoInventoryLogRepository) FindHistory(ctx context.Context, q HistoryQuery) ([]models.InventoryLog, int64, error) {
	filter := bson.M{"product_id": q.ProductID}
	if q.Source != "" {
		filter["source"] = q.Source
	}
	if q.FromDate != nil || q.ToDate != nil {
		created := bson.M{}
		if q.FromDate != nil {
			created["$gte"] = *q.FromDate
		}
		if q.ToDate != nil {
			created["$lte"] = *q.ToDate
		}
		filter["created_at"] = created
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var entries []models.InventoryLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

var statsDateFormats = map[string]string{
	"hour":  "%Y-%m-%d %H:00",
	"day":   "%Y-%m-%d",
	"month": "%Y-%m",
}

// Stats buckets ledger deltas by time period and source.
func (r *MongoInventoryLogRepository) Stats(ctx context.Context, q StatsQuery) ([]StatsBucket, error) {
	format, ok := statsDateFormats[q.GroupBy]
	if !ok {
		format = statsDateFormats["day"]
	}

	match := bson.M{}
	if q.FromDate != nil || q.ToDate != nil {
		created := bson.M{}
		if q.FromDate != nil {
			created["$gte"] = *q.FromDate
		}
		if q.ToDate != nil {
			created["$lte"] = *q.ToDate
		}
		match["created_at"] = created
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"period": bson.M{"$dateToString": bson.M{
					"format": format,
					"date":   "$created_at",
				}},
				"source": "$source",
			},
			"totalDelta": bson.M{"$sum": "$delta"},
			"entries":    bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":        0,
			"period":     "$_id.period",
			"source":     "$_id.source",
			"totalDelta": 1,
			"entries":    1,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "period", Value: 1}, {Key: "source", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var buckets []StatsBucket
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}
