package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestOrderRepository_PostgresCreateGetList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	customer := seedCustomerForIntegrationTest(t, store)
	product := seedProductForIntegrationTest(t, store, 500, 10)

	order1, err := repo.Create(context.Background(), domain.Order{
		CustomerID: customer.ID,
		Lines: []domain.OrderLine{
			{ProductID: product.ID, PriceMinor: 500, Qty: 3},
		},
	})
	if err != nil {
		t.Fatalf("create order1: %v", err)
	}
	if order1.ID == "" || order1.Lines[0].ID == "" {
		t.Fatalf("expected assigned identifiers, got %+v", order1)
	}

	order2, err := repo.Create(context.Background(), domain.Order{
		CustomerID: customer.ID,
		Lines: []domain.OrderLine{
			{ProductID: product.ID, PriceMinor: 500, Qty: 1},
		},
	})
	if err != nil {
		t.Fatalf("create order2: %v", err)
	}

	got, err := repo.Get(context.Background(), order1.ID)
	if err != nil {
		t.Fatalf("get order1: %v", err)
	}
	if got.CustomerID != customer.ID || len(got.Lines) != 1 {
		t.Fatalf("unexpected order payload: %+v", got)
	}
	if got.Lines[0].PriceMinor != 500 || got.Lines[0].Qty != 3 {
		t.Fatalf("unexpected line payload: %+v", got.Lines[0])
	}

	listed, err := repo.ListByCustomer(context.Background(), customer.ID, 1)
	if err != nil {
		t.Fatalf("list by customer with limit: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != order2.ID {
		t.Fatalf("unexpected list result with limit: %+v", listed)
	}

	all, err := repo.ListByCustomer(context.Background(), customer.ID, 0)
	if err != nil {
		t.Fatalf("list by customer without limit: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(all))
	}
}

func TestOrderRepository_PostgresLinesKeepSubmissionOrder(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	customer := seedCustomerForIntegrationTest(t, store)
	p1 := seedProductForIntegrationTest(t, store, 100, 10)
	p2 := seedProductForIntegrationTest(t, store, 200, 10)
	p3 := seedProductForIntegrationTest(t, store, 300, 10)

	// Все позиции получают один created_at, поэтому порядок подачи
	// должен сохраняться независимо от значений идентификаторов.
	submitted := []domain.OrderLine{
		{ProductID: p2.ID, PriceMinor: 200, Qty: 2},
		{ProductID: p1.ID, PriceMinor: 100, Qty: 1},
		{ProductID: p3.ID, PriceMinor: 300, Qty: 3},
	}

	created, err := repo.Create(context.Background(), domain.Order{
		CustomerID: customer.ID,
		Lines:      submitted,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	got, err := repo.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if len(got.Lines) != len(submitted) {
		t.Fatalf("expected %d lines, got %d", len(submitted), len(got.Lines))
	}
	for i, want := range submitted {
		line := got.Lines[i]
		if line.ProductID != want.ProductID || line.PriceMinor != want.PriceMinor || line.Qty != want.Qty {
			t.Fatalf("line %d out of order: want %+v, got %+v", i, want, line)
		}
	}
}

func TestOrderRepository_PostgresRejectsInvalidAggregate(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	customer := seedCustomerForIntegrationTest(t, store)
	product := seedProductForIntegrationTest(t, store, 500, 10)

	_, err := repo.Create(context.Background(), domain.Order{CustomerID: customer.ID})
	if !errors.Is(err, domain.ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}

	_, err = repo.Create(context.Background(), domain.Order{
		CustomerID: customer.ID,
		Lines:      []domain.OrderLine{{ProductID: product.ID, PriceMinor: 500, Qty: 0}},
	})
	if !errors.Is(err, domain.ErrQuantityInvalid) {
		t.Fatalf("expected ErrQuantityInvalid, got %v", err)
	}

	listed, err := repo.ListByCustomer(context.Background(), customer.ID, 0)
	if err != nil {
		t.Fatalf("list by customer: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected nothing persisted, got %d orders", len(listed))
	}
}

func TestOrderRepository_PostgresNotFound(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	_, err := repo.Get(context.Background(), uuid.NewString())
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
