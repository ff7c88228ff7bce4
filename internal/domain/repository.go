package domain

import "context"

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ вместе с позициями как единое целое и
	// возвращает сохранённый заказ с идентификаторами, присвоенными хранилищем.
	// Частично записанный агрегат (заголовок без позиций или наоборот) не
	// должен быть наблюдаем ни при каком исходе.
	Create(ctx context.Context, order Order) (Order, error)
	// Get возвращает заказ с позициями по идентификатору или ErrOrderNotFound, если его нет.
	Get(ctx context.Context, id string) (Order, error)
	// ListByCustomer возвращает заказы клиента с опциональным ограничением на количество.
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]Order, error)
}

// PlacementStore применяет запись заказа и списание остатков как одну единицу работы.
// Это закрывает гонку "прочитали остаток — записали остаток" между конкурентными
// размещениями: списание выполняется с охранным условием quantity >= qty, и если
// хотя бы одно списание не проходит, не сохраняется ничего.
type PlacementStore interface {
	// CommitPlacement сохраняет агрегат заказа и применяет списания атомарно.
	// Возвращает *InsufficientStockError, если охранное условие не выполнено
	// (в том числе при проигрыше гонки конкурентному размещению).
	CommitPlacement(ctx context.Context, order Order, debits []StockDebit) (Order, error)
}
