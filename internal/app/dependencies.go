package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

// Dependencies содержит хранилища приложения, собранные под выбранный драйвер.
type Dependencies struct {
	Customers domain.CustomerRepository
	Products  domain.ProductRepository
	Orders    domain.OrderRepository
	Store     domain.PlacementStore
	Outbox    domain.OutboxRepository

	// PostgresStore не nil только для драйвера postgres; используется
	// для health-проверок и закрытия подключения.
	PostgresStore *postgres.Store

	Logger *log.Entry
}

// NewDependencies создаёт зависимости для выбранного драйвера хранения.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		return newPostgresDependencies(ctx, cfg, logger)
	case StorageDriverMemory, "":
		return newMemoryDependencies(logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}

func newMemoryDependencies(logger *log.Entry) *Dependencies {
	products := memory.NewProductRepository()
	orders := memory.NewOrderRepository()

	return &Dependencies{
		Customers: memory.NewCustomerRepository(),
		Products:  products,
		Orders:    orders,
		Store:     memory.NewPlacementStore(products, orders),
		Outbox:    memory.NewOutboxRepository(),
		Logger:    logger,
	}
}

func newPostgresDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.PostgresAutoMigrate {
		if err := store.MigrateUp(ctx, 0); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("postgres migrations applied")
	}

	return &Dependencies{
		Customers:     postgres.NewCustomerRepository(store),
		Products:      postgres.NewProductRepository(store),
		Orders:        postgres.NewOrderRepository(store),
		Store:         postgres.NewPlacementStore(store),
		Outbox:        postgres.NewOutboxRepository(store),
		PostgresStore: store,
		Logger:        logger,
	}, nil
}

// Close освобождает ресурсы зависимостей.
func (d *Dependencies) Close() error {
	if d == nil || d.PostgresStore == nil {
		return nil
	}
	return d.PostgresStore.Close()
}
