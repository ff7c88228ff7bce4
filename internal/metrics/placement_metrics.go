package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Причины отклонения размещения для метрик (label "reason").
const (
	ReasonInvalidRequest    = "invalid_request"
	ReasonCustomerNotFound  = "customer_not_found"
	ReasonProductNotFound   = "product_not_found"
	ReasonInsufficientStock = "insufficient_stock"
	ReasonPersistence       = "persistence_failure"
)

// PlacementMetrics содержит метрики workflow размещения заказов.
type PlacementMetrics struct {
	// Счётчики исходов размещения
	placementsStarted  prometheus.Counter
	placementsAccepted prometheus.Counter
	placementsRejected *prometheus.CounterVec

	// Гистограмма времени выполнения размещения
	placementDuration prometheus.Histogram

	// Счётчики побочных эффектов
	stockUnitsDebited prometheus.Counter
	outboxEvents      prometheus.Counter
}

// NewPlacementMetrics создаёт новый экземпляр метрик размещения.
func NewPlacementMetrics() *PlacementMetrics {
	return newPlacementMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newPlacementMetricsWithRegisterer(registerer prometheus.Registerer) *PlacementMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &PlacementMetrics{
		placementsStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_placements_started_total",
			Help: "Total number of order placement attempts",
		}),
		placementsAccepted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_placements_accepted_total",
			Help: "Total number of successfully placed orders",
		}),
		placementsRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_placements_rejected_total",
			Help: "Total number of rejected placements grouped by reason",
		}, []string{"reason"}),
		placementDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "storefront_placement_duration_seconds",
			Help:    "Duration of order placement in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stockUnitsDebited: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_stock_units_debited_total",
			Help: "Total number of stock units debited by accepted orders",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_outbox_events_total",
			Help: "Total number of order events enqueued to the outbox",
		}),
	}
}

// RecordPlacementStarted увеличивает счётчик попыток размещения.
func (m *PlacementMetrics) RecordPlacementStarted() {
	m.placementsStarted.Inc()
}

// RecordPlacementAccepted увеличивает счётчик успешных размещений.
func (m *PlacementMetrics) RecordPlacementAccepted() {
	m.placementsAccepted.Inc()
}

// RecordPlacementRejected увеличивает счётчик отклонений по причине.
func (m *PlacementMetrics) RecordPlacementRejected(reason string) {
	m.placementsRejected.WithLabelValues(reason).Inc()
}

// RecordPlacementDuration записывает время выполнения размещения.
func (m *PlacementMetrics) RecordPlacementDuration(duration time.Duration) {
	m.placementDuration.Observe(duration.Seconds())
}

// RecordStockDebited увеличивает счётчик списанных единиц остатка.
func (m *PlacementMetrics) RecordStockDebited(units int64) {
	if units <= 0 {
		return
	}
	m.stockUnitsDebited.Add(float64(units))
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *PlacementMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}
