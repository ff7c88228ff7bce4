package domain

import (
	"context"
	"time"
)

// CustomerRepository описывает справочник клиентов.
type CustomerRepository interface {
	// Create сохраняет нового клиента (используется сидированием и фикстурами).
	Create(ctx context.Context, customer Customer) (Customer, error)
	// FindByID возвращает клиента или ErrCustomerNotFound, если его нет.
	FindByID(ctx context.Context, id string) (Customer, error)
}

// ProductRepository описывает каталог товаров и управление остатками.
type ProductRepository interface {
	// Create сохраняет новый товар (используется сидированием и фикстурами).
	Create(ctx context.Context, product Product) (Product, error)
	// FindAllByID возвращает товары по набору идентификаторов одним батчем.
	// Отсутствующие идентификаторы просто опускаются: недостачу вызывающая
	// сторона обнаруживает сравнением количества.
	FindAllByID(ctx context.Context, ids []string) ([]Product, error)
	// UpdateQuantities выставляет абсолютные значения остатков батчем.
	UpdateQuantities(ctx context.Context, updates []StockUpdate) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
