package models

import "time"

// Payment event types published to Kafka.
const (
	EventPaymentCreated  = "payment.created"
	EventPaymentSuccess  = "payment.success"
	EventPaymentFailed   = "payment.failed"
	EventPaymentRefunded = "payment.refunded"
)

// PaymentEvent is the message body on the payment event topic. Consumers
// must tolerate duplicates; delivery is at-least-once.
type PaymentEvent struct {
	Type          string    `json:"type"`
	PaymentID     string    `json:"paymentId"`
	OrderID       string    `json:"orderId"`
	Method        string    `json:"method"`
	Amount        int       `json:"amount"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transactionId,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}
