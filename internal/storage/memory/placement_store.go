package memory

import (
	"context"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// placementStore объединяет каталог и хранилище заказов в одну единицу фиксации.
type placementStore struct {
	products *ProductRepository
	orders   *OrderRepository
}

// NewPlacementStore возвращает in-memory реализацию атомарного размещения.
func NewPlacementStore(products *ProductRepository, orders *OrderRepository) domain.PlacementStore {
	return &placementStore{products: products, orders: orders}
}

// CommitPlacement списывает остатки целиком и сохраняет агрегат заказа.
// Списание выполняется всё-или-ничего под мьютексом каталога; при ошибке
// записи заказа остатки возвращаются компенсацией.
func (s *placementStore) CommitPlacement(ctx context.Context, order domain.Order, debits []domain.StockDebit) (domain.Order, error) {
	if err := s.products.debitStock(debits); err != nil {
		return domain.Order{}, err
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		s.products.creditStock(debits)
		return domain.Order{}, err
	}
	return created, nil
}

var _ domain.PlacementStore = (*placementStore)(nil)
