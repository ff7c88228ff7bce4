package domain

import "time"

// Customer — клиент, от имени которого оформляется заказ.
// Workflow размещения заказа только читает клиента, никогда не изменяет.
type Customer struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}
