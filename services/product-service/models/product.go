package models

import "time"

// Product is the stock record. Every quantity mutation must bump Version;
// writes are conditioned on the version observed at read time.
type Product struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Price     int       `bson:"price" json:"price"` // VND
	Quantity  int       `bson:"quantity" json:"quantity"`
	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
