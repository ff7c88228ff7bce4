package placement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// LineRequest — одна запрошенная позиция: товар и желаемое количество.
type LineRequest struct {
	ProductID string
	Qty       int32
}

// Service — единственный компонент с бизнес-правилами размещения заказа.
// Не хранит состояния, кроме внедрённых коллабораторов.
type Service struct {
	customers domain.CustomerRepository
	products  domain.ProductRepository
	orders    domain.OrderRepository
	store     domain.PlacementStore
	outbox    domain.OutboxRepository // опциональный transactional outbox для событий
	logger    *log.Entry
	metrics   *metrics.PlacementMetrics
}

// NewService создаёт рабочий экземпляр workflow размещения.
func NewService(
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	orders domain.OrderRepository,
	store domain.PlacementStore,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "placement")
	}
	return &Service{
		customers: customers,
		products:  products,
		orders:    orders,
		store:     store,
		logger:    logger,
		metrics:   metrics.NewPlacementMetrics(),
	}
}

// NewServiceWithOutbox создаёт workflow, публикующий события заказов через outbox.
func NewServiceWithOutbox(
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	orders domain.OrderRepository,
	store domain.PlacementStore,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Service {
	svc := NewService(customers, products, orders, store, logger)
	svc.outbox = outbox
	return svc
}

// NewServiceWithoutMetrics создаёт workflow без метрик (для тестов).
func NewServiceWithoutMetrics(
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	orders domain.OrderRepository,
	store domain.PlacementStore,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "placement")
	}
	return &Service{
		customers: customers,
		products:  products,
		orders:    orders,
		store:     store,
		outbox:    outbox,
		logger:    logger,
	}
}

// PlaceOrder проводит запрос через весь workflow: валидация, снимок каталога,
// построение позиций и атомарная фиксация заказа со списанием остатков.
// Любая ошибка терминальна для текущего вызова; повторов внутри нет.
func (s *Service) PlaceOrder(ctx context.Context, customerID string, requested []LineRequest) (domain.Order, error) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.RecordPlacementStarted()
		defer func() {
			s.metrics.RecordPlacementDuration(time.Since(start))
		}()
	}

	order, err := s.placeOrder(ctx, customerID, requested)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordPlacementRejected(rejectionReason(err))
		}
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordPlacementAccepted()
		var units int64
		for _, line := range order.Lines {
			units += int64(line.Qty)
		}
		s.metrics.RecordStockDebited(units)
	}
	return order, nil
}

func (s *Service) placeOrder(ctx context.Context, customerID string, requested []LineRequest) (domain.Order, error) {
	if len(requested) == 0 {
		return domain.Order{}, domain.ErrEmptyOrder
	}
	for _, line := range requested {
		if line.Qty <= 0 {
			return domain.Order{}, fmt.Errorf("product %s: %w", line.ProductID, domain.ErrQuantityInvalid)
		}
	}

	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			s.logger.WithField("customer_id", customerID).Warn("customer not found")
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("lookup customer: %w", err)
	}

	// Один батчевый запрос к каталогу; снимок цен и остатков используется
	// до конца workflow независимо от последующих изменений каталога.
	ids := distinctProductIDs(requested)
	found, err := s.products.FindAllByID(ctx, ids)
	if err != nil {
		return domain.Order{}, fmt.Errorf("lookup products: %w", err)
	}
	if len(found) < len(ids) {
		s.logger.WithFields(log.Fields{
			"customer_id": customer.ID,
			"requested":   len(ids),
			"found":       len(found),
		}).Warn("request references unknown products")
		return domain.Order{}, domain.ErrProductNotFound
	}

	snapshot := make(map[string]domain.Product, len(found))
	for _, product := range found {
		snapshot[product.ID] = product
	}

	// Каждая позиция проверяется против одного и того же снимка остатка;
	// повторяющиеся товары в запросе здесь не суммируются. Агрегатный
	// перерасход отлавливает охранное условие при фиксации.
	lines := make([]domain.OrderLine, 0, len(requested))
	debits := make([]domain.StockDebit, 0, len(requested))
	for _, line := range requested {
		product := snapshot[line.ProductID]
		if line.Qty > product.Quantity {
			s.logger.WithFields(log.Fields{
				"customer_id": customer.ID,
				"product_id":  product.ID,
				"requested":   line.Qty,
				"available":   product.Quantity,
			}).Warn("insufficient stock")
			return domain.Order{}, &domain.InsufficientStockError{
				ProductID: product.ID,
				Requested: line.Qty,
				Available: product.Quantity,
			}
		}

		lines = append(lines, domain.OrderLine{
			ProductID:  product.ID,
			PriceMinor: product.PriceMinor,
			Qty:        line.Qty,
		})
		debits = append(debits, domain.StockDebit{ProductID: product.ID, Qty: line.Qty})
	}

	order, err := s.store.CommitPlacement(ctx, domain.Order{
		CustomerID: customer.ID,
		Lines:      lines,
	}, debits)
	if err != nil {
		if domain.IsInsufficientStock(err) {
			// Проигранная гонка конкурентному размещению: снимок прошёл
			// проверку, но охранное условие при списании не выполнилось.
			s.logger.WithError(err).WithField("customer_id", customer.ID).Warn("placement lost stock race")
			return domain.Order{}, err
		}
		s.logger.WithError(err).WithField("customer_id", customer.ID).Error("failed to commit placement")
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	s.emitOrderCreated(order)

	s.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"customer_id":  order.CustomerID,
		"lines":        len(order.Lines),
		"amount_minor": order.AmountMinor(),
	}).Info("order placed")

	return order, nil
}

// GetOrder возвращает заказ с позициями по идентификатору.
func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return s.orders.Get(ctx, id)
}

// ListOrders возвращает заказы клиента.
func (s *Service) ListOrders(ctx context.Context, customerID string, limit int) ([]domain.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID, limit)
}

// emitOrderCreated кладёт событие order.created в outbox (best effort:
// заказ уже зафиксирован, поэтому ошибка публикации только логируется).
func (s *Service) emitOrderCreated(order domain.Order) {
	if s.outbox == nil {
		return
	}

	lines := make([]kafka.OrderLinePayload, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, kafka.OrderLinePayload{
			ProductID:  line.ProductID,
			PriceMinor: line.PriceMinor,
			Qty:        line.Qty,
		})
	}
	event := kafka.NewOrderEvent(kafka.EventTypeOrderCreated, order.ID, order.CustomerID, order.AmountMinor(), lines)

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("marshal order event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     string(kafka.EventTypeOrderCreated),
		Payload:       payload,
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("enqueue order event failed")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
}

func distinctProductIDs(requested []LineRequest) []string {
	ids := make([]string, 0, len(requested))
	seen := make(map[string]struct{}, len(requested))
	for _, line := range requested {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}

// rejectionReason переводит ошибку workflow в label метрики.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyOrder), errors.Is(err, domain.ErrQuantityInvalid):
		return metrics.ReasonInvalidRequest
	case errors.Is(err, domain.ErrCustomerNotFound):
		return metrics.ReasonCustomerNotFound
	case errors.Is(err, domain.ErrProductNotFound):
		return metrics.ReasonProductNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return metrics.ReasonInsufficientStock
	default:
		return metrics.ReasonPersistence
	}
}
