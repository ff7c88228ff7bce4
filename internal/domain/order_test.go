package domain

import (
	"errors"
	"testing"
	"time"
)

func validOrder() Order {
	now := time.Now().UTC()
	return Order{
		CustomerID: "customer-1",
		Lines: []OrderLine{
			{ProductID: "product-1", PriceMinor: 500, Qty: 3, CreatedAt: now},
			{ProductID: "product-2", PriceMinor: 120, Qty: 1, CreatedAt: now},
		},
		CreatedAt: now,
	}
}

func TestValidateLines_Valid(t *testing.T) {
	order := validOrder()
	if errs := order.ValidateLines(); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateLines_EmptyOrder(t *testing.T) {
	order := Order{CustomerID: "customer-1"}
	errs := order.ValidateLines()
	if len(errs) != 1 || !errors.Is(errs[0], ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", errs)
	}
}

func TestValidateLines_BadLine(t *testing.T) {
	order := validOrder()
	order.Lines[0].Qty = 0
	order.Lines[1].PriceMinor = -1

	errs := order.ValidateLines()

	var qty, price bool
	for _, err := range errs {
		if errors.Is(err, ErrQuantityInvalid) {
			qty = true
		}
		if errors.Is(err, ErrLinePriceInvalid) {
			price = true
		}
	}
	if !qty || !price {
		t.Fatalf("expected quantity and price errors, got %v", errs)
	}
}

func TestAmountMinor(t *testing.T) {
	order := validOrder()
	// 3*500 + 1*120
	if got := order.AmountMinor(); got != 1620 {
		t.Fatalf("expected amount 1620, got %d", got)
	}
}

func TestInsufficientStockError_Unwrap(t *testing.T) {
	var err error = &InsufficientStockError{ProductID: "product-1", Requested: 11, Available: 10}

	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatal("expected errors.Is to match ErrInsufficientStock")
	}
	if !IsInsufficientStock(err) {
		t.Fatal("expected IsInsufficientStock to return true")
	}

	var typed *InsufficientStockError
	if !errors.As(err, &typed) || typed.ProductID != "product-1" {
		t.Fatalf("expected typed error naming product-1, got %v", err)
	}
}
