package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Inventory log sources.
const (
	SourceOrder   = "order"
	SourceRefund  = "refund"
	SourceCancel  = "cancel"
	SourceAdmin   = "admin"
	SourceRestock = "restock"
)

// InventoryLog is one append-only ledger entry. Entries are never updated
// or deleted; for any product, initial stock plus the sum of deltas must
// equal the current quantity.
type InventoryLog struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID     string             `bson:"product_id" json:"productId"`
	Delta         int                `bson:"delta" json:"delta"`
	Source        string             `bson:"source" json:"source"`
	RefID         string             `bson:"ref_id,omitempty" json:"refId,omitempty"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	PreviousStock int                `bson:"previous_stock" json:"previousStock"`
	NewStock      int                `bson:"new_stock" json:"newStock"`
	RequestID     string             `bson:"request_id,omitempty" json:"requestId,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
}
