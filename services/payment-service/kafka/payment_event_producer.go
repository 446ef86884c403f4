package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/vietshop/backend/services/common/logger"
	"github.com/vietshop/backend/services/payment-service/models"
	"go.uber.org/zap"
)

// EventPublisher is the side-channel for terminal payment outcomes.
// Publishing is best-effort; the payment flow never blocks on it.
type EventPublisher interface {
	Publish(ctx context.Context, event models.PaymentEvent) error
	Close() error
}

type PaymentEventProducer struct {
	writer *kafka.Writer
	topic  string
}

func NewPaymentEventProducer(brokers, topic string) *PaymentEventProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 5 * time.Second,
	}
	return &PaymentEventProducer{writer: w, topic: topic}
}

// Publish keys messages by order id so all events for one order land on
// the same partition in order.
func (p *PaymentEventProducer) Publish(ctx context.Context, event models.PaymentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error(ctx, "failed to publish payment event", err,
			zap.String("type", event.Type),
			zap.String("orderId", event.OrderID),
		)
		return err
	}

	logger.Info(ctx, "published payment event",
		zap.String("type", event.Type),
		zap.String("orderId", event.OrderID),
		zap.String("paymentId", event.PaymentID),
	)
	return nil
}

func (p *PaymentEventProducer) Close() error {
	return p.writer.Close()
}
