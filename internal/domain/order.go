package domain

import "time"

// OrderLine представляет одну позицию заказа.
type OrderLine struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID string
	// ProductID — ссылка на товар каталога.
	ProductID string
	// PriceMinor — снимок цены товара на момент валидации заказа;
	// последующие изменения каталога его не затрагивают.
	PriceMinor int64
	// Qty — количество, списанное с остатка товара в пользу этой позиции
	// (именно списанное, а не оставшееся).
	Qty int32
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// Order агрегирует заголовок заказа и его позиции. Заказ создаётся ровно один раз
// и после создания не изменяется; позиции принадлежат заказу и не живут без него.
type Order struct {
	ID         string
	CustomerID string
	Lines      []OrderLine
	CreatedAt  time.Time
}

// AmountMinor возвращает сумму заказа по позициям: qty * price.
func (o *Order) AmountMinor() int64 {
	var sum int64
	for _, line := range o.Lines {
		sum += int64(line.Qty) * line.PriceMinor
	}
	return sum
}

// ValidateLines проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateLines() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrEmptyOrder)
	}
	for _, line := range o.Lines {
		if line.ProductID == "" {
			errs = append(errs, ErrLineProductRequired)
		}
		if line.Qty <= 0 {
			errs = append(errs, ErrQuantityInvalid)
		}
		if line.PriceMinor < 0 {
			errs = append(errs, ErrLinePriceInvalid)
		}
	}

	return errs
}
