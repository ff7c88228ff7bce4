package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/placement"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/transport/httpapi"
)

// OrderPlacementTestSuite гоняет полный путь размещения заказа через HTTP API:
// роутер, хендлеры, workflow и in-memory хранилище с охранными списаниями.
type OrderPlacementTestSuite struct {
	suite.Suite
	server    *httptest.Server
	customers domain.CustomerRepository
	products  *memory.ProductRepository
	orders    *memory.OrderRepository
}

func (s *OrderPlacementTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	s.customers = memory.NewCustomerRepository()
	s.products = memory.NewProductRepository()
	s.orders = memory.NewOrderRepository()
	store := memory.NewPlacementStore(s.products, s.orders)
	outbox := memory.NewOutboxRepository()

	svc := placement.NewServiceWithoutMetrics(s.customers, s.products, s.orders, store, outbox, logger)
	router := httpapi.NewRouter(httpapi.NewHandler(svc, logger), logger)
	s.server = httptest.NewServer(router)
}

func (s *OrderPlacementTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *OrderPlacementTestSuite) seedCustomer() domain.Customer {
	customer, err := s.customers.Create(context.Background(), domain.Customer{
		Name:  "Анна Смирнова",
		Email: "anna@example.com",
	})
	require.NoError(s.T(), err)
	return customer
}

func (s *OrderPlacementTestSuite) seedProduct(priceMinor int64, quantity int32) domain.Product {
	product, err := s.products.Create(context.Background(), domain.Product{
		Name:       "Клавиатура",
		PriceMinor: priceMinor,
		Quantity:   quantity,
	})
	require.NoError(s.T(), err)
	return product
}

func (s *OrderPlacementTestSuite) placeOrder(customerID string, lines []map[string]any) *http.Response {
	body, err := json.Marshal(map[string]any{
		"customer_id": customerID,
		"lines":       lines,
	})
	require.NoError(s.T(), err)

	resp, err := http.Post(s.server.URL+"/v1/orders", "application/json", bytes.NewReader(body))
	require.NoError(s.T(), err)
	return resp
}

func (s *OrderPlacementTestSuite) TestPlaceAndFetchOrder() {
	customer := s.seedCustomer()
	product := s.seedProduct(549900, 10)

	resp := s.placeOrder(customer.ID, []map[string]any{
		{"product_id": product.ID, "qty": 3},
	})
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	var placed struct {
		ID          string `json:"id"`
		CustomerID  string `json:"customer_id"`
		AmountMinor int64  `json:"amount_minor"`
		Lines       []struct {
			ProductID  string `json:"product_id"`
			PriceMinor int64  `json:"price_minor"`
			Qty        int32  `json:"qty"`
		} `json:"lines"`
	}
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&placed))
	require.NotEmpty(s.T(), placed.ID)
	require.Equal(s.T(), customer.ID, placed.CustomerID)
	require.EqualValues(s.T(), 3*549900, placed.AmountMinor)
	require.Len(s.T(), placed.Lines, 1)
	require.EqualValues(s.T(), 549900, placed.Lines[0].PriceMinor)

	// Остаток списан немедленно.
	remaining, err := s.products.FindAllByID(context.Background(), []string{product.ID})
	require.NoError(s.T(), err)
	require.Len(s.T(), remaining, 1)
	require.EqualValues(s.T(), 7, remaining[0].Quantity)

	// Заказ читается обратно тем же API.
	getResp, err := http.Get(s.server.URL + "/v1/orders/" + placed.ID)
	require.NoError(s.T(), err)
	defer getResp.Body.Close()
	require.Equal(s.T(), http.StatusOK, getResp.StatusCode)

	// И виден в списке заказов клиента.
	listResp, err := http.Get(s.server.URL + "/v1/customers/" + customer.ID + "/orders")
	require.NoError(s.T(), err)
	defer listResp.Body.Close()
	require.Equal(s.T(), http.StatusOK, listResp.StatusCode)

	var listed []json.RawMessage
	require.NoError(s.T(), json.NewDecoder(listResp.Body).Decode(&listed))
	require.Len(s.T(), listed, 1)
}

func (s *OrderPlacementTestSuite) TestPriceSnapshotSurvivesCatalogChange() {
	customer := s.seedCustomer()
	product := s.seedProduct(1000, 10)

	resp := s.placeOrder(customer.ID, []map[string]any{
		{"product_id": product.ID, "qty": 1},
	})
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	var placed struct {
		ID string `json:"id"`
	}
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&placed))

	// Цена в каталоге меняется после размещения.
	updated := product
	updated.PriceMinor = 9999
	_, err := s.products.Create(context.Background(), updated)
	require.NoError(s.T(), err)

	order, err := s.orders.Get(context.Background(), placed.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), order.Lines, 1)
	require.EqualValues(s.T(), 1000, order.Lines[0].PriceMinor)
}

func (s *OrderPlacementTestSuite) TestInsufficientStockConflict() {
	customer := s.seedCustomer()
	product := s.seedProduct(1000, 2)

	resp := s.placeOrder(customer.ID, []map[string]any{
		{"product_id": product.ID, "qty": 5},
	})
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusConflict, resp.StatusCode)

	var payload struct {
		Error     string `json:"error"`
		ProductID string `json:"product_id"`
		Requested int32  `json:"requested"`
		Available int32  `json:"available"`
	}
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(s.T(), product.ID, payload.ProductID)
	require.EqualValues(s.T(), 5, payload.Requested)
	require.EqualValues(s.T(), 2, payload.Available)

	// Ничего не сохранилось и ничего не списалось.
	orders, err := s.orders.ListByCustomer(context.Background(), customer.ID, 0)
	require.NoError(s.T(), err)
	require.Empty(s.T(), orders)
}

func (s *OrderPlacementTestSuite) TestConcurrentPlacementsNeverOversell() {
	customer := s.seedCustomer()
	product := s.seedProduct(1000, 10)

	const workers = 25

	var wg sync.WaitGroup
	statuses := make([]int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			resp := s.placeOrder(customer.ID, []map[string]any{
				{"product_id": product.ID, "qty": 1},
			})
			defer resp.Body.Close()
			statuses[idx] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	placed, conflicts := 0, 0
	for _, st := range statuses {
		switch st {
		case http.StatusCreated:
			placed++
		case http.StatusConflict:
			conflicts++
		default:
			s.T().Fatalf("unexpected status: %d", st)
		}
	}

	require.Equal(s.T(), 10, placed, "exactly the available stock must be sold")
	require.Equal(s.T(), workers-10, conflicts)

	remaining, err := s.products.FindAllByID(context.Background(), []string{product.ID})
	require.NoError(s.T(), err)
	require.Len(s.T(), remaining, 1)
	require.EqualValues(s.T(), 0, remaining[0].Quantity)
}

func (s *OrderPlacementTestSuite) TestRepeatedRequestsCreateSeparateOrders() {
	customer := s.seedCustomer()
	product := s.seedProduct(1000, 10)

	ids := make(map[string]struct{})
	for i := 0; i < 2; i++ {
		resp := s.placeOrder(customer.ID, []map[string]any{
			{"product_id": product.ID, "qty": 1},
		})
		require.Equal(s.T(), http.StatusCreated, resp.StatusCode)

		var placed struct {
			ID string `json:"id"`
		}
		require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&placed))
		resp.Body.Close()
		ids[placed.ID] = struct{}{}
	}

	require.Len(s.T(), ids, 2, "identical requests are distinct orders")

	orders, err := s.orders.ListByCustomer(context.Background(), customer.ID, 0)
	require.NoError(s.T(), err)
	require.Len(s.T(), orders, 2)
}

func (s *OrderPlacementTestSuite) TestUnknownOrderIsNotFound() {
	resp, err := http.Get(fmt.Sprintf("%s/v1/orders/%s", s.server.URL, "missing-id"))
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusNotFound, resp.StatusCode)
}

func TestOrderPlacementTestSuite(t *testing.T) {
	suite.Run(t, new(OrderPlacementTestSuite))
}
