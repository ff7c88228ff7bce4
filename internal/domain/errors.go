package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка отсутствующего идентификатора клиента.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrEmptyOrder = errors.New("order must contain at least one product")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrQuantityInvalid = errors.New("requested quantity must be greater than zero")
	// Ошибка позиции без ссылки на товар.
	ErrLineProductRequired = errors.New("order line product_id is required")
	// Ошибка, если цена позиции отрицательная.
	ErrLinePriceInvalid = errors.New("order line price must be non-negative")
	// ErrCustomerNotFound возвращается, если клиент не найден в справочнике.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductNotFound возвращается, если хотя бы один запрошенный товар отсутствует в каталоге.
	ErrProductNotFound = errors.New("one or more products not found")
	// ErrInsufficientStock — запрошено больше, чем доступно на остатке.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderAlreadyExists сигнализирует о конфликте идентификаторов при сохранении.
	ErrOrderAlreadyExists = errors.New("order already exists")
	// ErrPersistence — инфраструктурная ошибка хранилища при фиксации заказа.
	ErrPersistence = errors.New("order persistence failed")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// InsufficientStockError уточняет ErrInsufficientStock конкретным товаром.
type InsufficientStockError struct {
	ProductID string
	Requested int32
	Available int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// IsInsufficientStock проверяет, относится ли ошибка к нехватке остатка.
func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}
