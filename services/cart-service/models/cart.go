package models

import "time"

// Cart statuses
const (
	StatusActive    = "active"
	StatusConverted = "converted"
	StatusAbandoned = "abandoned"
)

type CartItem struct {
	ProductID string `json:"product"`
	Name      string `json:"name"`
	Price     int    `json:"price"` // VND
	Quantity  int    `json:"quantity"`
	Image     string `json:"image,omitempty"`
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Cart belongs to either an authenticated user or an anonymous session,
// never both.
type Cart struct {
	UserID       string       `json:"userId,omitempty"`
	SessionID    string       `json:"sessionId,omitempty"`
	Status       string       `json:"status"`
	Items        []CartItem   `json:"items"`
	Subtotal     int          `json:"subtotal"`
	Discount     int          `json:"discount"`
	CustomerInfo CustomerInfo `json:"customerInfo"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Recalculate refreshes the subtotal from the line items.
func (c *Cart) Recalculate() {
	subtotal := 0
	for _, item := range c.Items {
		subtotal += item.Price * item.Quantity
	}
	c.Subtotal = subtotal
}

var validStatuses = map[string]bool{
	StatusActive:    true,
	StatusConverted: true,
	StatusAbandoned: true,
}

func ValidStatus(status string) bool {
	return validStatuses[status]
}
