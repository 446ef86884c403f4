package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
)

// Payment statuses
const (
	PaymentUnpaid     = "unpaid"
	PaymentProcessing = "processing"
	PaymentPaid       = "paid"
	PaymentFailed     = "payment_failed"
	PaymentRefunded   = "refunded"
)

type Address struct {
	FullName string `gorm:"not null" json:"fullName"`
	Phone    string `gorm:"not null" json:"phone"`
	Street   string `gorm:"not null" json:"street"`
	City     string `gorm:"not null" json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Country  string `gorm:"default:Vietnam" json:"country"`
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Order struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber string    `gorm:"uniqueIndex;not null" json:"orderNumber"`

	// Exactly one of UserID / SessionID is set; anonymous checkouts carry
	// the session identifier only.
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"userId,omitempty"`
	SessionID *string    `gorm:"index" json:"sessionId,omitempty"`

	Customer CustomerInfo `gorm:"embedded;embeddedPrefix:customer_" json:"customerInfo"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`

	// Amounts in VND. TotalAmount = Subtotal + ShippingCost - Discount.
	Subtotal     int `gorm:"not null" json:"subtotal"`
	ShippingCost int `gorm:"not null;default:0" json:"shippingCost"`
	Discount     int `gorm:"not null;default:0" json:"discount"`
	TotalAmount  int `gorm:"not null" json:"totalAmount"`

	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	ShippingMethod  string  `gorm:"type:varchar(20);not null" json:"shippingMethod"`

	PaymentMethod string `gorm:"type:varchar(20);not null" json:"paymentMethod"`
	PaymentStatus string `gorm:"type:varchar(20);not null;default:'unpaid'" json:"paymentStatus"`
	Status        string `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	StatusHistory []StatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"statusHistory"`

	AdminNotes string `gorm:"type:text" json:"adminNotes,omitempty"`

	PaidAt      *time.Time `json:"paidAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// OrderItem is an immutable snapshot of a cart line at creation time.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	ProductID string    `gorm:"not null" json:"product"`
	Name      string    `gorm:"not null" json:"name"`
	Price     int       `gorm:"not null" json:"price"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Image     string    `json:"image,omitempty"`
}

// StatusHistory is append-only; rows are never updated or deleted.
type StatusHistory struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"-"`
	Status    string     `gorm:"type:varchar(20);not null" json:"status"`
	Note      string     `json:"note,omitempty"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid" json:"updatedBy,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"date"`
}

// ValidStatus reports whether s is a defined order status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// ValidPaymentStatus reports whether s is a defined payment status.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentUnpaid, PaymentProcessing, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}
