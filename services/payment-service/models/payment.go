package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment methods
const (
	MethodVNPay = "VNPay"
	MethodMomo  = "Momo"
	MethodCOD   = "CashOnDelivery"
)

// Payment statuses
const (
	StatusPending  = "pending"
	StatusSuccess  = "success"
	StatusFailed   = "failed"
	StatusRefunded = "refunded"
)

type Payment struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID uuid.UUID `gorm:"type:uuid;index;not null" json:"orderId"`

	Amount int    `gorm:"not null" json:"amount"` // VND
	Method string `gorm:"type:varchar(20);not null" json:"paymentMethod"`
	Status string `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	// Assigned by the gateway strategy; unique once set.
	TransactionID *string `gorm:"uniqueIndex" json:"transactionId,omitempty"`
	Gateway       string  `gorm:"type:varchar(20)" json:"paymentGateway,omitempty"`

	// Raw gateway callback, kept opaque for audit.
	CallbackPayload *string `gorm:"type:jsonb" json:"-"`

	RefundAmount *int       `json:"refundAmount,omitempty"`
	RefundReason *string    `json:"refundReason,omitempty"`
	RefundedAt   *time.Time `json:"refundedAt,omitempty"`
	RefundedBy   *uuid.UUID `gorm:"type:uuid" json:"refundedBy,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Terminal reports whether the payment reached a state callbacks must not
// overwrite.
func (p *Payment) Terminal() bool {
	switch p.Status {
	case StatusSuccess, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// OnlineMethod reports whether the method settles through a gateway.
func OnlineMethod(method string) bool {
	return method == MethodVNPay || method == MethodMomo
}
