package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type placementStore struct {
	db *sql.DB
}

// NewPlacementStore создаёт PostgreSQL-реализацию PlacementStore.
func NewPlacementStore(store *Store) domain.PlacementStore {
	return &placementStore{db: store.DB()}
}

// CommitPlacement записывает агрегат заказа и списывает остатки в одной
// транзакции. Каждое списание выполняется с охранным условием
// quantity >= qty; ноль затронутых строк означает, что остатка не хватило
// (в том числе из-за конкурентного размещения), и вся транзакция
// откатывается.
func (s *placementStore) CommitPlacement(ctx context.Context, order domain.Order, debits []domain.StockDebit) (_ domain.Order, err error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(opCtx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	order, err = insertOrderTx(opCtx, tx, order)
	if err != nil {
		return domain.Order{}, err
	}

	for _, debit := range debits {
		var res sql.Result
		res, err = tx.ExecContext(opCtx, `
			UPDATE products
			SET quantity = quantity - $2,
			    updated_at = NOW()
			WHERE id = $1
			  AND quantity >= $2
		`, debit.ProductID, debit.Qty)
		if err != nil {
			return domain.Order{}, fmt.Errorf("debit stock for product %s: %w", debit.ProductID, err)
		}

		var affected int64
		affected, err = res.RowsAffected()
		if err != nil {
			return domain.Order{}, fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			available, availErr := productQuantityTx(opCtx, tx, debit.ProductID)
			if availErr != nil {
				if errors.Is(availErr, domain.ErrProductNotFound) {
					err = availErr
					return domain.Order{}, err
				}
				return domain.Order{}, availErr
			}
			err = &domain.InsufficientStockError{
				ProductID: debit.ProductID,
				Requested: debit.Qty,
				Available: available,
			}
			return domain.Order{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit placement: %w", err)
	}

	return order, nil
}

func productQuantityTx(ctx context.Context, tx *sql.Tx, productID string) (int32, error) {
	var quantity int32
	err := tx.QueryRowContext(ctx, `SELECT quantity FROM products WHERE id = $1`, productID).Scan(&quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrProductNotFound
		}
		return 0, fmt.Errorf("check product quantity: %w", err)
	}
	return quantity, nil
}

var _ domain.PlacementStore = (*placementStore)(nil)
