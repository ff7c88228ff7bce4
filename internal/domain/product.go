package domain

import "time"

// Product — товар каталога с конечным остатком.
type Product struct {
	// ID — идентификатор товара в каталоге.
	ID string
	// Name — человекочитаемое название.
	Name string
	// PriceMinor — цена за единицу в минимальных денежных единицах (например, копейки).
	PriceMinor int64
	// Quantity — доступный остаток; единственное разделяемое изменяемое состояние,
	// уменьшается только успешными размещениями и никогда не уходит ниже нуля.
	Quantity int32
	// CreatedAt/UpdatedAt фиксируют моменты создания и последнего изменения остатка.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockUpdate задаёт новое абсолютное значение остатка товара (батчевое обновление).
type StockUpdate struct {
	ProductID string
	Quantity  int32
}

// StockDebit описывает гарантированное списание остатка: применяется только если
// доступного количества достаточно, иначе вся единица работы откатывается.
type StockDebit struct {
	ProductID string
	Qty       int32
}
