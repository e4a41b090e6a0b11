package events

import (
	"context"
	"encoding/json"
	"fmt"

	ordersdomain "github.com/itik-it/grindstack/internal/orders/domain"
	"github.com/segmentio/kafka-go"
)

const orderPlacedTopic = "order-placed"

// KafkaPublisher broadcasts completed checkouts so downstream consumers
// (reporting, fulfillment) can react without being in the commit path.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  orderPlacedTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, order *ordersdomain.Order) error {
	payload, err := json.Marshal(map[string]interface{}{
		"order_id":   order.ID,
		"user_id":    order.UserID,
		"items":      order.Items,
		"total":      order.Total,
		"status":     order.Status,
		"created_at": order.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order placed payload: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.ID.String()), // order_id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("OrderPlaced")},
		},
	}

	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
