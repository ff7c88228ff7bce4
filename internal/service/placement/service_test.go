package placement

import (
	"context"
	"errors"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type fixture struct {
	customers domain.CustomerRepository
	products  *memory.ProductRepository
	orders    *memory.OrderRepository
	outbox    interface {
		domain.OutboxRepository
		AllPending() []domain.OutboxMessage
	}
	svc *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	customers := memory.NewCustomerRepository()
	products := memory.NewProductRepository()
	orders := memory.NewOrderRepository()
	outbox := memory.NewOutboxRepository()
	store := memory.NewPlacementStore(products, orders)

	logger := log.New()
	logger.SetLevel(log.PanicLevel)

	return &fixture{
		customers: customers,
		products:  products,
		orders:    orders,
		outbox:    outbox,
		svc: NewServiceWithoutMetrics(
			customers, products, orders, store, outbox,
			logger.WithField("component", "placement-test"),
		),
	}
}

func (f *fixture) seedCustomer(t *testing.T) domain.Customer {
	t.Helper()

	customer, err := f.customers.Create(context.Background(), domain.Customer{
		Name:  "Alice",
		Email: "alice@example.com",
	})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer
}

func (f *fixture) seedProduct(t *testing.T, price int64, qty int32) domain.Product {
	t.Helper()

	product, err := f.products.Create(context.Background(), domain.Product{
		Name:       "keyboard",
		PriceMinor: price,
		Quantity:   qty,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func (f *fixture) productQuantity(t *testing.T, id string) int32 {
	t.Helper()

	found, err := f.products.FindAllByID(context.Background(), []string{id})
	if err != nil || len(found) != 1 {
		t.Fatalf("load product %s: %v", id, err)
	}
	return found[0].Quantity
}

// Сценарий из спецификации: остаток 10, цена 5.00, заказ на 3 единицы.
func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	product := f.seedProduct(t, 500, 10)

	order, err := f.svc.PlaceOrder(context.Background(), customer.ID,
		[]LineRequest{{ProductID: product.ID, Qty: 3}})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if order.ID == "" {
		t.Fatal("expected store-assigned order id")
	}
	if order.CustomerID != customer.ID {
		t.Fatalf("expected customer %s, got %s", customer.ID, order.CustomerID)
	}
	if len(order.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(order.Lines))
	}
	line := order.Lines[0]
	if line.ProductID != product.ID || line.PriceMinor != 500 || line.Qty != 3 {
		t.Fatalf("unexpected line %+v", line)
	}
	if got := f.productQuantity(t, product.ID); got != 7 {
		t.Fatalf("expected stock 7 after placement, got %d", got)
	}
}

func TestPlaceOrder_RoundTrip(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	product := f.seedProduct(t, 500, 10)

	placed, err := f.svc.PlaceOrder(context.Background(), customer.ID,
		[]LineRequest{{ProductID: product.ID, Qty: 3}})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	loaded, err := f.svc.GetOrder(context.Background(), placed.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if len(loaded.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(loaded.Lines))
	}
	got := loaded.Lines[0]
	want := placed.Lines[0]
	if got.ProductID != want.ProductID || got.PriceMinor != want.PriceMinor || got.Qty != want.Qty {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestPlaceOrder_EmptyRequest(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)

	_, err := f.svc.PlaceOrder(context.Background(), customer.ID, nil)
	if !errors.Is(err, domain.ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}
}

func TestPlaceOrder_NonPositiveQuantity(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	product := f.seedProduct(t, 500, 10)

	for _, qty := range []int32{0, -2} {
		_, err := f.svc.PlaceOrder(context.Background(), customer.ID,
			[]LineRequest{{ProductID: product.ID, Qty: qty}})
		if !errors.Is(err, domain.ErrQuantityInvalid) {
			t.Fatalf("qty %d: expected ErrQuantityInvalid, got %v", qty, err)
		}
	}

	// Отклонение происходит до проверки остатков и ничего не списывает.
	if got := f.productQuantity(t, product.ID); got != 10 {
		t.Fatalf("expected stock untouched at 10, got %d", got)
	}
}

func TestPlaceOrder_CustomerNotFound(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(t, 500, 10)

	_, err := f.svc.PlaceOrder(context.Background(), "missing",
		[]LineRequest{{ProductID: product.ID, Qty: 1}})
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
	if got := f.productQuantity(t, product.ID); got != 10 {
		t.Fatalf("expected stock untouched at 10, got %d", got)
	}
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	product := f.seedProduct(t, 500, 10)

	_, err := f.svc.PlaceOrder(context.Background(), customer.ID, []LineRequest{
		{ProductID: product.ID, Qty: 1},
		{ProductID: "missing", Qty: 1},
	})
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	// Ни заказа, ни изменения остатков.
	orders, err := f.orders.ListByCustomer(context.Background(), customer.ID, 0)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected no orders, got %d", len(orders))
	}
	if got := f.productQuantity(t, product.ID); got != 10 {
		t.Fatalf("expected stock untouched at 10, got %d", got)
	}
}

// Сценарий из спецификации: остаток 10, запрошено 11.
func TestPlaceOrder_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	product := f.seedProduct(t, 500, 10)

	_, err := f.svc.PlaceOrder(context.Background(), customer.ID,
		[]LineRequest{{ProductID: product.ID, Qty: 11}})

	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.ProductID != product.ID {
		t.Fatalf("expected offending product %s, got %s", product.ID, stockErr.ProductID)
	}
	if stockErr.Requested != 11 || stockErr.Available != 10 {
		t.Fatalf("unexpected quantities in %+v", stockErr)
	}

	if got := f.productQuantity(t, product.ID); got != 10 {
		t.Fatalf("expected stock untouched at 10, got %d", got)
	}
	orders, _ := f.orders.ListByCustomer(context.Background(), customer.ID, 0)
	if len(orders) != 0 {
		t.Fatalf("expected no orders, got %d", len(orders))
	}
}

// Повторяющиеся товары валидируются независимо против одного снимка,
// но охранное условие фиксации отклоняет суммарный перерасход.
func TestPlaceOrder_DuplicateLinesAggregateOverdraft(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	product := f.seedProduct(t, 500, 10)

	_, err := f.svc.PlaceOrder(context.Background(), customer.ID, []LineRequest{
		{ProductID: product.ID, Qty: 6},
		{ProductID: product.ID, Qty: 6},
	})
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if got := f.productQuantity(t, product.ID); got != 10 {
		t.Fatalf("expected stock untouched at 10, got %d", got)
	}
}

func TestPlaceOrder_DuplicateLinesWithinStock(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	product := f.seedProduct(t, 500, 10)

	order, err := f.svc.PlaceOrder(context.Background(), customer.ID, []LineRequest{
		{ProductID: product.ID, Qty: 4},
		{ProductID: product.ID, Qty: 3},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if len(order.Lines) != 2 {
		t.Fatalf("expected 2 independent lines, got %d", len(order.Lines))
	}
	if got := f.productQuantity(t, product.ID); got != 3 {
		t.Fatalf("expected stock 3 after both debits, got %d", got)
	}
}

// Идемпотентность не гарантируется: два одинаковых запроса дают два заказа.
func TestPlaceOrder_NotIdempotent(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	product := f.seedProduct(t, 500, 10)

	request := []LineRequest{{ProductID: product.ID, Qty: 3}}

	first, err := f.svc.PlaceOrder(context.Background(), customer.ID, request)
	if err != nil {
		t.Fatalf("first placement: %v", err)
	}
	second, err := f.svc.PlaceOrder(context.Background(), customer.ID, request)
	if err != nil {
		t.Fatalf("second placement: %v", err)
	}

	if first.ID == second.ID {
		t.Fatal("expected two distinct orders")
	}
	if got := f.productQuantity(t, product.ID); got != 4 {
		t.Fatalf("expected stock debited twice to 4, got %d", got)
	}
}

type failingStore struct{}

func (failingStore) CommitPlacement(context.Context, domain.Order, []domain.StockDebit) (domain.Order, error) {
	return domain.Order{}, errors.New("disk on fire")
}

func TestPlaceOrder_PersistenceFailure(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	product := f.seedProduct(t, 500, 10)

	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	svc := NewServiceWithoutMetrics(
		f.customers, f.products, f.orders, failingStore{}, f.outbox,
		logger.WithField("component", "placement-test"),
	)

	_, err := svc.PlaceOrder(context.Background(), customer.ID,
		[]LineRequest{{ProductID: product.ID, Qty: 1}})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if len(f.outbox.AllPending()) != 0 {
		t.Fatal("expected no outbox events for failed placement")
	}
}

func TestPlaceOrder_EmitsOrderCreatedEvent(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	product := f.seedProduct(t, 500, 10)

	order, err := f.svc.PlaceOrder(context.Background(), customer.ID,
		[]LineRequest{{ProductID: product.ID, Qty: 2}})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	pending := f.outbox.AllPending()
	if len(pending) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(pending))
	}
	msg := pending[0]
	if msg.EventType != "order.created" || msg.AggregateID != order.ID {
		t.Fatalf("unexpected outbox message %+v", msg)
	}
}
