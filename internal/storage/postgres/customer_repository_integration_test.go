package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestCustomerRepository_PostgresCreateAndFind(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCustomerRepository(store)

	created, err := repo.Create(context.Background(), domain.Customer{
		Name:  "Alice",
		Email: "alice@example.com",
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned customer id")
	}

	found, err := repo.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("find customer: %v", err)
	}
	if found.Name != "Alice" || found.Email != "alice@example.com" {
		t.Fatalf("unexpected customer payload: %+v", found)
	}
}

func TestCustomerRepository_PostgresNotFound(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCustomerRepository(store)

	_, err := repo.FindByID(context.Background(), uuid.NewString())
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}
