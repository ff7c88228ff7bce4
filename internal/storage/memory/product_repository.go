package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// ProductRepository — in-memory каталог товаров с остатками.
// Экспортируемый тип: placement store этого пакета использует гарантированное
// списание под тем же мьютексом.
type ProductRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewProductRepository возвращает in-memory каталог для локальной разработки и тестов.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		items: make(map[string]domain.Product),
	}
}

// Create сохраняет новый товар, присваивая идентификатор, если он не задан.
func (r *ProductRepository) Create(_ context.Context, product domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = now
	}
	r.items[product.ID] = product
	return product, nil
}

// FindAllByID возвращает найденные товары, молча опуская отсутствующие идентификаторы.
func (r *ProductRepository) FindAllByID(_ context.Context, ids []string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if product, ok := r.items[id]; ok {
			result = append(result, product)
		}
	}
	return result, nil
}

// UpdateQuantities выставляет абсолютные значения остатков батчем.
func (r *ProductRepository) UpdateQuantities(_ context.Context, updates []domain.StockUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, update := range updates {
		product, ok := r.items[update.ProductID]
		if !ok {
			return domain.ErrProductNotFound
		}
		product.Quantity = update.Quantity
		product.UpdatedAt = time.Now().UTC()
		r.items[update.ProductID] = product
	}
	return nil
}

// debitStock применяет батч списаний целиком либо не применяет вовсе.
// Проверка и запись выполняются под одним мьютексом, поэтому конкурентные
// списания одного товара не могут пройти по одному и тому же снимку остатка.
func (r *ProductRepository) debitStock(debits []domain.StockDebit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Сначала проверяем весь батч с учётом повторяющихся товаров.
	pending := make(map[string]int32, len(debits))
	for _, debit := range debits {
		product, ok := r.items[debit.ProductID]
		if !ok {
			return domain.ErrProductNotFound
		}
		pending[debit.ProductID] += debit.Qty
		if pending[debit.ProductID] > product.Quantity {
			return &domain.InsufficientStockError{
				ProductID: debit.ProductID,
				Requested: pending[debit.ProductID],
				Available: product.Quantity,
			}
		}
	}

	now := time.Now().UTC()
	for id, qty := range pending {
		product := r.items[id]
		product.Quantity -= qty
		product.UpdatedAt = now
		r.items[id] = product
	}
	return nil
}

// creditStock возвращает списанные остатки (компенсация несостоявшегося размещения).
func (r *ProductRepository) creditStock(debits []domain.StockDebit) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for _, debit := range debits {
		product, ok := r.items[debit.ProductID]
		if !ok {
			continue
		}
		product.Quantity += debit.Qty
		product.UpdatedAt = now
		r.items[debit.ProductID] = product
	}
}

var _ domain.ProductRepository = (*ProductRepository)(nil)
