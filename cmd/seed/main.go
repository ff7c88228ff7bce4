package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

// Утилита наполняет базу демонстрационными клиентами и товарами,
// чтобы можно было сразу размещать заказы через HTTP API.

const seedTimeout = 30 * time.Second

type seedProduct struct {
	name       string
	priceMinor int64
	quantity   int32
}

var demoCustomers = []string{
	"Анна Смирнова",
	"Пётр Волков",
	"Мария Козлова",
}

var demoProducts = []seedProduct{
	{name: "Клавиатура механическая", priceMinor: 549900, quantity: 40},
	{name: "Мышь беспроводная", priceMinor: 219900, quantity: 120},
	{name: "Монитор 27\"", priceMinor: 2899900, quantity: 15},
	{name: "USB-C хаб", priceMinor: 349900, quantity: 60},
	{name: "Коврик для мыши", priceMinor: 59900, quantity: 300},
}

func main() {
	var dsn string
	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: STOREFRONT_POSTGRES_DSN)")
	flag.Parse()

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv("STOREFRONT_POSTGRES_DSN"))
	}
	if dsn == "" {
		fail("STOREFRONT_POSTGRES_DSN (or -dsn) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		fail("ensure schema: %v", err)
	}

	customers := postgres.NewCustomerRepository(store)
	products := postgres.NewProductRepository(store)

	suffix := time.Now().Unix()
	for i, name := range demoCustomers {
		created, err := customers.Create(ctx, domain.Customer{
			Name:  name,
			Email: fmt.Sprintf("seed-%d-%d@storefront.local", suffix, i),
		})
		if err != nil {
			fail("create customer %q: %v", name, err)
		}
		fmt.Printf("customer %s  %s\n", created.ID, created.Name)
	}

	for _, p := range demoProducts {
		created, err := products.Create(ctx, domain.Product{
			Name:       p.name,
			PriceMinor: p.priceMinor,
			Quantity:   p.quantity,
		})
		if err != nil {
			fail("create product %q: %v", p.name, err)
		}
		fmt.Printf("product  %s  %-28s price=%d qty=%d\n", created.ID, created.Name, created.PriceMinor, created.Quantity)
	}

	fmt.Println("seed done")
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
