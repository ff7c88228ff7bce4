package kafka

import (
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// OutboxPublisher адаптирует Producer к интерфейсу публикации outbox:
// payload в outbox уже сериализован, поэтому отправляется как есть,
// ключом служит идентификатор агрегата для стабильного партиционирования.
type OutboxPublisher struct {
	producer *Producer
	topic    string
}

// NewOutboxPublisher создаёт publisher поверх Kafka producer.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxPublisher{producer: producer, topic: topic}
}

// Publish отправляет событие в Kafka.
func (p *OutboxPublisher) Publish(event domain.OutboxMessage) error {
	return p.producer.PublishRaw(p.topic, event.AggregateID, event.Payload)
}

var _ domain.OutboxPublisher = (*OutboxPublisher)(nil)
